package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts all the cron jobs (currently just one)
func (serverHandler *ServerHandler) InitializeSchedules() {
	if serverHandler.Browser == nil {
		Logger.Info("No browser configured, skipping browser probe scheduler")
		return
	}

	c := cron.New()
	var probeJob cron.Job
	probeJob = cron.FuncJob(func() { serverHandler.browserProbeFunc() })
	probeJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(probeJob) //ensure we don't kick off another if old one is still running
	c.AddJob(fmt.Sprintf("@every %dm", serverHandler.ServerConfig.BrowserProbe), probeJob)
	Logger.Info("Adding browser probe scheduler", "interval_minutes", serverHandler.ServerConfig.BrowserProbe)
	c.Start()
}

// browserProbeFunc checks that the headless browser is still reachable and
// relaunches it when it has died, so the first export after a crash does not
// pay the relaunch cost.
func (serverHandler *ServerHandler) browserProbeFunc() {
	if serverHandler.Browser.Alive() {
		Logger.Debug("Browser probe: browser alive")
		return
	}

	Logger.Warn("Browser probe: browser not running, attempting relaunch")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lease, err := serverHandler.Browser.Acquire(ctx)
	if err != nil {
		Logger.Error("Browser probe: relaunch failed", "error", err)
		return
	}
	lease.Release()
	Logger.Info("Browser probe: browser relaunched")
}
