package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/demart/catalogstudio/config"
	database "github.com/demart/catalogstudio/database"
	engine "github.com/demart/catalogstudio/engine"
	"github.com/demart/catalogstudio/engine/render"
)

func TestIsAddressInUse(t *testing.T) {
	if isAddressInUse(nil) {
		t.Error("nil error should not be address-in-use")
	}
	if isAddressInUse(errors.New("connection refused")) {
		t.Error("unrelated error should not be address-in-use")
	}
	if !isAddressInUse(fmt.Errorf("listen tcp :8000: bind: address already in use")) {
		t.Error("bind error not recognized")
	}
}

// TestLiveServerExport starts a real HTTP server and drives a PDF export
// through a real headless browser. Skipped when no browser is installed.
func TestLiveServerExport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	browserPath, err := render.ResolveExecutable("")
	if err != nil {
		t.Skip("No Chrome/Chromium browser found, skipping live export test")
	}
	t.Logf("Using browser: %s", browserPath)

	t.Setenv("LOG_OUTPUT", "stdout")
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)

	serverConfig.DatabaseType = "sqlite"
	serverConfig.DatabaseDbname = ":memory:"
	serverConfig.ExportPath = t.TempDir()

	db := database.NewRepository(serverConfig)
	defer db.Close()

	e := echo.New()
	e.HideBanner = true
	serverHandler := engine.ServerHandler{DB: db, Echo: e, ServerConfig: serverConfig}
	if err := serverHandler.StartupChecks(); err != nil {
		t.Fatalf("startup checks failed: %v", err)
	}
	if serverHandler.Browser != nil {
		defer serverHandler.Browser.Shutdown()
	}
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	e.POST("/api/export/pdf", serverHandler.ExportPDF)
	e.GET("/api/render/health", serverHandler.GetRenderHealth)

	// Start server in background
	testPort := "8996"
	go func() {
		if err := e.Start(fmt.Sprintf("127.0.0.1:%s", testPort)); err != nil {
			t.Logf("Server stopped: %v", err)
		}
	}()
	time.Sleep(2 * time.Second)
	defer e.Shutdown(context.Background())

	baseURL := fmt.Sprintf("http://127.0.0.1:%s", testPort)

	body, err := json.Marshal(map[string]interface{}{
		"html_content": "<html><body><h1>Live export</h1></body></html>",
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	response, err := client.Post(baseURL+"/api/export/pdf", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer response.Body.Close()

	artifact, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read export response: %v", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("export returned %d: %s", response.StatusCode, artifact)
	}
	if !bytes.HasPrefix(artifact, []byte("%PDF")) {
		t.Fatalf("response is not a PDF, first bytes: %q", artifact[:min(8, len(artifact))])
	}
	t.Logf("Live export produced a %d byte PDF", len(artifact))

	// the browser should now report alive
	healthResponse, err := client.Get(baseURL + "/api/render/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer healthResponse.Body.Close()
	var health map[string]interface{}
	if err := json.NewDecoder(healthResponse.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["browserAlive"] != true {
		t.Errorf("browser not reported alive after a render: %v", health)
	}
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
