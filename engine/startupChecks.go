package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/demart/catalogstudio/database"
	"github.com/demart/catalogstudio/engine/render"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	serverHandler.browserChecks()
	if err := exportDirectoryChecks(serverHandler.ServerConfig.ExportPath); err != nil {
		return err
	}
	if err := serverHandler.seedDefaults(); err != nil {
		return err
	}
	return nil
}

// browserChecks resolves the browser executable and wires up the renderer.
// A missing browser is not fatal, export endpoints report unavailable instead.
func (serverHandler *ServerHandler) browserChecks() {
	execPath, err := render.ResolveExecutable(serverHandler.ServerConfig.ChromePath)
	if err != nil {
		Logger.Warn("No browser executable found, export endpoints will be unavailable", "configured_path", serverHandler.ServerConfig.ChromePath, "error", err)
		serverHandler.Browser = nil
		serverHandler.Renderer = nil
		return
	}

	loadTimeout := time.Duration(serverHandler.ServerConfig.RenderTimeout) * time.Millisecond
	settleDelay := time.Duration(serverHandler.ServerConfig.RenderSettle) * time.Millisecond
	browser := render.NewBrowser(execPath, loadTimeout, settleDelay)
	serverHandler.Browser = browser
	serverHandler.Renderer = browser
	Logger.Info("Browser executable found, exports enabled", "path", execPath)
}

// exportDirectoryChecks ensures the export directory exists
func exportDirectoryChecks(exportPath string) error {
	if exportPath == "" {
		Logger.Warn("Export path not configured")
		return nil
	}

	// Check if directory exists
	exportInfo, err := os.Stat(exportPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create the directory
			Logger.Info("Creating export directory", "path", exportPath)
			err = os.MkdirAll(exportPath, 0755)
			if err != nil {
				Logger.Error("Failed to create export directory", "path", exportPath, "error", err)
				return err
			}
			Logger.Info("Export directory created successfully", "path", exportPath)
			return nil
		}
		Logger.Error("Error checking export directory", "path", exportPath, "error", err)
		return err
	}

	// Check if it's actually a directory
	if !exportInfo.IsDir() {
		Logger.Error("Export path exists but is not a directory", "path", exportPath)
		return fmt.Errorf("export path is not a directory: %s", exportPath)
	}

	Logger.Info("Export directory exists", "path", exportPath)
	return nil
}

// seedDefaults inserts the preset themes and the pinned glossary terms.
// Inserts are idempotent upserts so restarting does not duplicate rows, and
// user edits to non-preset fields are overwritten back to the shipped values.
func (serverHandler *ServerHandler) seedDefaults() error {
	for _, theme := range database.DefaultThemes {
		if err := serverHandler.DB.SaveTheme(&theme); err != nil {
			Logger.Error("Failed to seed preset theme", "id", theme.ID, "error", err)
			return err
		}
	}
	for _, term := range database.DefaultGlossary {
		if err := serverHandler.DB.SaveGlossaryTerm(&term); err != nil {
			Logger.Error("Failed to seed glossary term", "id", term.ID, "error", err)
			return err
		}
	}
	Logger.Info("Preset themes and glossary seeded", "themes", len(database.DefaultThemes), "glossary_terms", len(database.DefaultGlossary))
	return nil
}
