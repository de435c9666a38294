package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/demart/catalogstudio/config"
	database "github.com/demart/catalogstudio/database"
	engine "github.com/demart/catalogstudio/engine"
	"github.com/demart/catalogstudio/engine/render"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	render.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	// Show info banner if using ephemeral database
	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Database will be destroyed on exit")
		fmt.Println("• Perfect for testing and development")
		fmt.Println("• No persistent data storage")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	// Setup database (handles ephemeral, postgres, cockroachdb, sqlite)
	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db := database.NewRepository(serverConfig)
	defer db.Close()
	Logger.Info("Database setup complete")

	e := echo.New()
	e.HideBanner = true

	// Custom 404 handler: API consumers always get JSON
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound && strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		e.DefaultHTTPErrorHandler(err, c)
	}

	serverHandler := engine.ServerHandler{DB: db, Echo: e, ServerConfig: serverConfig} //injecting the database into the handler for routes
	if err := serverHandler.StartupChecks(); err != nil {                              //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	Logger.Info("Startup checks complete")
	serverHandler.InitializeSchedules() //initialize all the cron jobs
	if serverHandler.Browser != nil {
		defer serverHandler.Browser.Shutdown()
	}

	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	// Export API routes
	e.POST("/api/export/pdf", serverHandler.ExportPDF)
	e.POST("/api/export/image", serverHandler.ExportImage)
	e.POST("/api/export/batch", serverHandler.ExportBatch)
	e.GET("/api/export-history", serverHandler.GetExportHistory)

	// Backup API routes
	e.POST("/api/backup/export/:id", serverHandler.BackupExport)
	e.POST("/api/backup/import", serverHandler.BackupImport)

	// Catalog API routes
	e.GET("/api/catalogs", serverHandler.GetCatalogs)
	e.POST("/api/catalogs", serverHandler.CreateCatalog)
	e.GET("/api/catalogs/:id", serverHandler.GetCatalog)
	e.PUT("/api/catalogs/:id", serverHandler.UpdateCatalog)
	e.DELETE("/api/catalogs/:id", serverHandler.DeleteCatalog)
	e.POST("/api/catalogs/:id/duplicate", serverHandler.DuplicateCatalog)
	e.POST("/api/catalogs/:id/pages", serverHandler.AddPage)
	e.PUT("/api/catalogs/:id/pages/:pageId", serverHandler.UpdatePage)
	e.DELETE("/api/catalogs/:id/pages/:pageId", serverHandler.DeletePage)
	e.POST("/api/catalogs/:id/pages/:pageId/duplicate", serverHandler.DuplicatePage)
	e.GET("/api/tags", serverHandler.GetTags)

	// Card API routes
	e.GET("/api/cards", serverHandler.GetCards)
	e.POST("/api/cards", serverHandler.CreateCard)
	e.GET("/api/cards/:id", serverHandler.GetCard)
	e.PUT("/api/cards/:id", serverHandler.UpdateCard)
	e.DELETE("/api/cards/:id", serverHandler.DeleteCard)

	// Theme and glossary API routes
	e.GET("/api/themes", serverHandler.GetThemes)
	e.POST("/api/themes", serverHandler.CreateTheme)
	e.DELETE("/api/themes/:id", serverHandler.DeleteTheme)
	e.GET("/api/glossary", serverHandler.GetGlossary)
	e.POST("/api/glossary", serverHandler.SaveGlossaryTerm)
	e.DELETE("/api/glossary/:id", serverHandler.DeleteGlossaryTerm)

	// Image helper API routes
	e.POST("/api/upload-image", serverHandler.UploadImage)
	e.POST("/api/resize-image", serverHandler.ResizeImage)
	e.POST("/api/remove-background", serverHandler.RemoveBackground)

	// Admin API routes
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/render/health", serverHandler.GetRenderHealth)

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	Logger.Info("Starting HTTP server")

	// Try to start server with automatic port increment if port is in use
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr = e.Start(addr)

		// Check if error is "address already in use"
		if startErr != nil && isAddressInUse(startErr) {
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)

			// Increment port for next attempt
			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			portNum++
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)

			if attempt == maxRetries-1 {
				Logger.Error("Failed to find available port after maximum retries",
					"start_port", startPort,
					"end_port", serverConfig.ListenAddrPort,
					"max_retries", maxRetries)
				os.Exit(1)
			}
		} else if startErr != nil {
			// Some other error occurred
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		} else {
			// Server started successfully
			break
		}
	}

	// If we got here and startErr is nil, server started successfully
	if startErr == nil && serverConfig.ListenAddrPort != startPort {
		Logger.Warn("Server started on alternative port due to conflicts",
			"requested_port", startPort,
			"actual_port", serverConfig.ListenAddrPort)
	}
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
