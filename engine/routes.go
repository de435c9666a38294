package engine

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/config"
	"github.com/demart/catalogstudio/database"
	"github.com/demart/catalogstudio/engine/render"
	"github.com/demart/catalogstudio/internal/build"
)

// Renderer turns HTML into export bytes. *render.Browser satisfies it; tests
// substitute a stub so the handlers can be exercised without a browser.
type Renderer interface {
	RenderPDF(ctx context.Context, html string, widthMm, heightMm float64, landscape bool) ([]byte, error)
	RenderImage(ctx context.Context, html string, widthPx, heightPx, quality int, format string) ([]byte, error)
}

// ServerHandler carries everything the route handlers need
type ServerHandler struct {
	DB           database.Repository
	Renderer     Renderer
	Browser      *render.Browser // nil when no browser executable was found
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
}

// renderErrorStatus maps render failures onto HTTP status codes
func renderErrorStatus(err error) int {
	switch {
	case errors.Is(err, render.ErrBrowserMissing), errors.Is(err, render.ErrBrowserLaunch):
		return http.StatusServiceUnavailable
	case errors.Is(err, render.ErrRenderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(context echo.Context, status int, message string) error {
	return context.JSON(status, map[string]interface{}{"error": message})
}

// notFoundOr500 keeps the sql.ErrNoRows to 404 mapping in one place
func notFoundOr500(context echo.Context, err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errorJSON(context, http.StatusNotFound, message)
	}
	return errorJSON(context, http.StatusInternalServerError, err.Error())
}

// GetAboutInfo returns information about the service configuration
// @Summary Get service information
// @Description Retrieve information about the service configuration, version, and database
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Service information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	browserConfigured := serverHandler.Renderer != nil

	aboutInfo := map[string]interface{}{
		"version":           build.Version,
		"browserConfigured": browserConfigured,
		"chromePath":        serverHandler.ServerConfig.ChromePath,
		"databaseType":      serverHandler.ServerConfig.DatabaseType,
		"databaseHost":      serverHandler.ServerConfig.DatabaseHost,
		"databasePort":      serverHandler.ServerConfig.DatabasePort,
		"databaseName":      serverHandler.ServerConfig.DatabaseDbname,
		"exportPath":        serverHandler.ServerConfig.ExportPath,
		"reverseProxy":      serverHandler.ServerConfig.UseReverseProxy,
		"baseURL":           serverHandler.ServerConfig.BaseURL,
	}

	return c.JSON(http.StatusOK, aboutInfo)
}

// GetRenderHealth reports whether the rendering browser is usable
// @Summary Get renderer health
// @Description Report whether a browser executable is configured and whether a browser process is currently live
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Renderer status"
// @Router /render/health [get]
func (serverHandler *ServerHandler) GetRenderHealth(c echo.Context) error {
	alive := false
	if serverHandler.Browser != nil {
		alive = serverHandler.Browser.Alive()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"browserConfigured": serverHandler.Renderer != nil,
		"browserAlive":      alive,
	})
}

// GetExportHistory returns the most recent export records
// @Summary Get export history
// @Description Retrieve the most recent export records, newest first
// @Tags Exports
// @Accept json
// @Produce json
// @Param limit query int false "Maximum records to return (default: 50)"
// @Success 200 {array} database.ExportRecord "Export records"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /export-history [get]
func (serverHandler *ServerHandler) GetExportHistory(context echo.Context) error {
	limit := 50
	if limitParam := context.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := serverHandler.DB.GetExportHistory(limit)
	if err != nil {
		Logger.Error("Failed to fetch export history", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to fetch export history")
	}
	if records == nil {
		records = []database.ExportRecord{}
	}
	return context.JSON(http.StatusOK, records)
}

// GetTags returns the distinct tags used across all catalogs
// @Summary Get all tags
// @Description Retrieve the sorted set of distinct tags across all catalogs
// @Tags Catalogs
// @Accept json
// @Produce json
// @Success 200 {array} string "Sorted unique tags"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /tags [get]
func (serverHandler *ServerHandler) GetTags(context echo.Context) error {
	catalogs, err := serverHandler.DB.GetCatalogs("", "")
	if err != nil {
		Logger.Error("Failed to fetch catalogs for tag listing", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to fetch tags")
	}

	seen := make(map[string]bool)
	var tags []string
	for _, catalog := range catalogs {
		for _, tag := range catalog.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	if tags == nil {
		tags = []string{}
	}
	return context.JSON(http.StatusOK, tags)
}
