package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/database"
	"github.com/demart/catalogstudio/engine/render"
)

// BatchErrorsHeader carries the per-preset failure messages of a partially
// successful batch export.
const BatchErrorsHeader = "X-Batch-Errors"

// BatchPreset is one requested artifact in a batch export
type BatchPreset struct {
	Format    string  `json:"format"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	IsMm      bool    `json:"is_mm"`
	Label     string  `json:"label"`
	Optimize  bool    `json:"optimize"`
	Quality   int     `json:"quality"`
	Landscape bool    `json:"landscape"`
}

// BatchExportRequest is the body for the batch export endpoint
type BatchExportRequest struct {
	HTMLContent string        `json:"html_content"`
	Presets     []BatchPreset `json:"presets"`
	CatalogName string        `json:"catalog_name"`
	CatalogID   string        `json:"catalog_id"`
}

// applyPresetDefaults fills zero-valued preset fields with the social-media
// square defaults
func applyPresetDefaults(preset *BatchPreset) {
	if preset.Format == "" {
		preset.Format = "png"
	}
	if preset.Width == 0 {
		preset.Width = 1080
	}
	if preset.Height == 0 {
		preset.Height = 1080
	}
	if preset.Quality == 0 {
		preset.Quality = 90
	}
	if preset.Label == "" {
		preset.Label = formatDimension(preset.Width) + "x" + formatDimension(preset.Height)
	}
}

// sanitizeCatalogName turns a catalog display name into a filesystem and zip
// safe stem: spaces become underscores, path separators are dropped, and the
// result is capped at 30 characters.
func sanitizeCatalogName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return -1
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "..", "")
	runes := []rune(name)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	name = string(runes)
	if name == "" {
		name = "export"
	}
	return name
}

// renderPreset produces one batch artifact. The returned name is the zip entry
// name for the artifact.
func (serverHandler *ServerHandler) renderPreset(context echo.Context, html string, preset BatchPreset, stem string) (string, []byte, error) {
	ctx := context.Request().Context()
	switch normalizeImageFormat(preset.Format) {
	case "png", "jpeg":
		format := normalizeImageFormat(preset.Format)
		widthPx := int(preset.Width)
		heightPx := int(preset.Height)
		if preset.IsMm {
			widthPx = render.MmToPixels(preset.Width)
			heightPx = render.MmToPixels(preset.Height)
		}
		if widthPx < 1 || heightPx < 1 {
			return "", nil, fmt.Errorf("preset %q: dimensions are too small to render", preset.Label)
		}
		data, err := serverHandler.Renderer.RenderImage(ctx, html, widthPx, heightPx, preset.Quality, format)
		if err != nil {
			return "", nil, fmt.Errorf("preset %q: %w", preset.Label, err)
		}
		if preset.Optimize {
			if optimized, err := recompressImage(data, format); err == nil {
				data = optimized
			}
		}
		return fmt.Sprintf("%s_%s.%s", stem, preset.Label, imageExtension(format)), data, nil
	default:
		if preset.Format != "pdf" {
			return "", nil, fmt.Errorf("preset %q: unsupported format %q", preset.Label, preset.Format)
		}
		widthMm := preset.Width
		heightMm := preset.Height
		if !preset.IsMm {
			widthMm = render.PixelsToMm(preset.Width)
			heightMm = render.PixelsToMm(preset.Height)
		}
		data, err := serverHandler.Renderer.RenderPDF(ctx, html, widthMm, heightMm, preset.Landscape)
		if err != nil {
			return "", nil, fmt.Errorf("preset %q: %w", preset.Label, err)
		}
		return fmt.Sprintf("%s_%s.pdf", stem, preset.Label), data, nil
	}
}

// ExportBatch renders the same HTML at multiple presets and returns a zip
// @Summary Batch export HTML at multiple presets
// @Description Render the supplied HTML once per preset and return all artifacts as a single zip archive. Presets that fail are skipped and reported in the X-Batch-Errors response header.
// @Tags Exports
// @Accept json
// @Produce application/zip
// @Param request body BatchExportRequest true "Batch export parameters"
// @Success 200 {file} binary "Zip archive"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "All presets failed or archive could not be persisted"
// @Failure 503 {object} map[string]interface{} "Browser unavailable"
// @Router /export/batch [post]
func (serverHandler *ServerHandler) ExportBatch(context echo.Context) error {
	request := BatchExportRequest{CatalogName: "export"}
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.HTMLContent == "" {
		return errorJSON(context, http.StatusBadRequest, "html_content is required")
	}
	if len(request.Presets) == 0 {
		return errorJSON(context, http.StatusBadRequest, "at least one preset is required")
	}
	if serverHandler.Renderer == nil {
		return errorJSON(context, http.StatusServiceUnavailable, "No browser executable available, batch export is disabled")
	}

	stem := fmt.Sprintf("%s_%s", sanitizeCatalogName(request.CatalogName), time.Now().Format("20060102"))

	var buffer bytes.Buffer
	archive := zip.NewWriter(&buffer)
	var failures []string
	successes := 0
	now := time.Now()

	for i := range request.Presets {
		preset := request.Presets[i]
		applyPresetDefaults(&preset)

		entryName, data, err := serverHandler.renderPreset(context, request.HTMLContent, preset, stem)
		if err != nil {
			Logger.Warn("Batch preset failed", "label", preset.Label, "error", err)
			failures = append(failures, err.Error())
			continue
		}

		writer, err := archive.Create(entryName)
		if err != nil {
			failures = append(failures, fmt.Sprintf("preset %q: %v", preset.Label, err))
			continue
		}
		if _, err := writer.Write(data); err != nil {
			failures = append(failures, fmt.Sprintf("preset %q: %v", preset.Label, err))
			continue
		}
		successes++

		pageCount := 1
		if preset.Format == "pdf" {
			pageCount = countPDFPages(data)
		}
		serverHandler.saveRecord(database.ExportRecord{
			ID:         database.NewID(),
			CatalogID:  request.CatalogID,
			Format:     normalizeRecordFormat(preset.Format),
			SizePreset: preset.Label,
			Quality:    qualityTier(preset.Optimize),
			FileName:   entryName,
			FileSize:   int64(len(data)),
			PageCount:  pageCount,
			CreatedAt:  now,
		})
	}

	if err := archive.Close(); err != nil {
		Logger.Error("Failed to finalize batch archive", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to build archive")
	}
	if successes == 0 {
		return errorJSON(context, http.StatusInternalServerError, "all presets failed: "+strings.Join(failures, "; "))
	}

	zipName := stem + "_batch.zip"
	zipPath := filepath.Join(serverHandler.ServerConfig.ExportPath, zipName)
	if err := os.WriteFile(zipPath, buffer.Bytes(), 0644); err != nil {
		// unlike single exports the archive is the deliverable, so a failed
		// write to the export directory fails the request
		Logger.Error("Failed to persist batch archive", "path", zipPath, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to persist archive")
	}

	if len(failures) > 0 {
		context.Response().Header().Set(BatchErrorsHeader, strings.Join(failures, "; "))
	}
	context.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, zipName))
	return context.Blob(http.StatusOK, "application/zip", buffer.Bytes())
}

func normalizeRecordFormat(format string) string {
	if normalized := normalizeImageFormat(format); normalized != "" {
		return normalized
	}
	return format
}
