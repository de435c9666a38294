package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

var (
	// ErrBrowserMissing means no browser executable could be resolved.
	// Retrying a request will not fix this.
	ErrBrowserMissing = errors.New("browser executable not found")
	// ErrBrowserLaunch means the executable was found but no launch
	// profile produced a connected browser. The next acquire retries.
	ErrBrowserLaunch = errors.New("browser failed to launch")
	// ErrRenderTimeout means the page did not load and capture within
	// the configured budget.
	ErrRenderTimeout = errors.New("render timed out")
)

// Flag is one browser command-line switch
type Flag struct {
	Name  string
	Value any
}

// LaunchProfile is one named flag set. Profiles are tried in order and
// the first successful launch wins.
type LaunchProfile struct {
	Name  string
	Flags []Flag
}

// LaunchProfiles holds the fallback order: the enriched set first, then
// a minimal set for hosts where the extra switches misbehave.
var LaunchProfiles = []LaunchProfile{
	{
		Name: "enriched",
		Flags: []Flag{
			{"headless", true},
			{"no-sandbox", true},
			{"disable-setuid-sandbox", true},
			{"disable-dev-shm-usage", true},
			{"disable-gpu", true},
			{"disable-software-rasterizer", true},
			{"font-render-hinting", "none"},
		},
	},
	{
		Name: "minimal",
		Flags: []Flag{
			{"headless", true},
			{"no-sandbox", true},
			{"disable-gpu", true},
		},
	},
}

var executableNames = []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"}

var executablePaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
}

// ResolveExecutable finds the browser binary. A non-empty override wins,
// then PATH lookups, then the fixed install locations. A miss is
// ErrBrowserMissing, which is distinct from a launch failure.
func ResolveExecutable(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: configured path %s", ErrBrowserMissing, override)
		}
		return override, nil
	}
	for _, name := range executableNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	for _, path := range executablePaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrBrowserMissing
}

// Browser owns the single shared headless browser process. It launches
// lazily on first acquire and relaunches transparently when the process
// is found dead at borrow time.
type Browser struct {
	execPath    string
	loadTimeout time.Duration
	settleDelay time.Duration

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser wraps an already-resolved executable path. Nothing is
// launched until the first Acquire.
func NewBrowser(execPath string, loadTimeout, settleDelay time.Duration) *Browser {
	return &Browser{
		execPath:    execPath,
		loadTimeout: loadTimeout,
		settleDelay: settleDelay,
	}
}

// PageLease is one tab borrowed for exactly one render. Release must be
// called on every exit path; it only closes the tab, never the browser.
type PageLease struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Release closes the leased tab
func (l *PageLease) Release() {
	l.cancel()
}

// Acquire returns a fresh tab on the shared browser, launching or
// relaunching the process if needed. The mutex serializes the launch
// critical section so concurrent first acquires share one process.
func (b *Browser) Acquire(ctx context.Context) (*PageLease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensureLaunchedLocked(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	return &PageLease{Ctx: tabCtx, cancel: tabCancel}, nil
}

// Alive reports whether a launched browser process is still connected
func (b *Browser) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browserCtx != nil && b.browserCtx.Err() == nil
}

// Shutdown closes the browser process if one is running
func (b *Browser) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Browser) closeLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
		b.browserCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	b.browserCtx = nil
}

// ensureLaunchedLocked verifies liveness and walks the launch profile
// list until one produces a connected browser. Callers hold b.mu.
func (b *Browser) ensureLaunchedLocked() error {
	if b.browserCtx != nil && b.browserCtx.Err() == nil {
		return nil
	}
	if b.browserCtx != nil {
		Logger.Warn("Browser process found dead at borrow time, relaunching")
	}
	b.closeLocked()

	var lastErr error
	for _, profile := range LaunchProfiles {
		opts := []chromedp.ExecAllocatorOption{
			chromedp.ExecPath(b.execPath),
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
		}
		for _, flag := range profile.Flags {
			opts = append(opts, chromedp.Flag(flag.Name, flag.Value))
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		// Run with no actions forces the process to start and connect
		startCtx, startCancel := context.WithTimeout(browserCtx, 30*time.Second)
		err := chromedp.Run(startCtx)
		startCancel()
		if err != nil {
			browserCancel()
			allocCancel()
			lastErr = err
			Logger.Warn("Browser launch profile failed", "profile", profile.Name, "error", err)
			continue
		}

		Logger.Info("Browser launched", "profile", profile.Name, "path", b.execPath)
		b.allocCancel = allocCancel
		b.browserCtx = browserCtx
		b.browserCancel = browserCancel
		return nil
	}

	return fmt.Errorf("%w: all launch profiles exhausted: %v", ErrBrowserLaunch, lastErr)
}
