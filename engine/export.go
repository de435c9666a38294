package engine

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledongthuc/pdf"

	"github.com/demart/catalogstudio/database"
	"github.com/demart/catalogstudio/engine/render"
)

// ExportRequest is the body for the single-export endpoints. Dimensions are
// millimeters when IsMm is true, CSS pixels otherwise.
type ExportRequest struct {
	HTMLContent string  `json:"html_content"`
	Format      string  `json:"format"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Quality     int     `json:"quality"`
	IsMm        bool    `json:"is_mm"`
	Landscape   bool    `json:"landscape"`
	Optimize    bool    `json:"optimize"`
	CatalogID   string  `json:"catalog_id"`
	CardID      string  `json:"card_id"`
}

// defaultExportRequest pre-fills the A4 portrait defaults; echo's Bind leaves
// absent JSON fields untouched so callers only override what they send.
func defaultExportRequest() ExportRequest {
	return ExportRequest{
		Format:  "pdf",
		Width:   210,
		Height:  297,
		Quality: 90,
		IsMm:    true,
	}
}

func qualityTier(optimize bool) string {
	if optimize {
		return "web"
	}
	return "high"
}

// formatDimension renders a size value without trailing zeros, so the preset
// label for an A4 export reads "210x297" rather than "210.000000x297.000000".
func formatDimension(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func exportFileName(ext string) string {
	return fmt.Sprintf("export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

// countPDFPages reads the page count out of rendered PDF bytes. Returns 0 when
// the bytes cannot be parsed, provenance is best-effort.
func countPDFPages(data []byte) int {
	defer func() { recover() }() // the parser panics on some malformed files
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}

// saveRecord persists an export record, logging rather than failing the
// request when the database write does not succeed.
func (serverHandler *ServerHandler) saveRecord(record database.ExportRecord) {
	if err := serverHandler.DB.SaveExportRecord(&record); err != nil {
		Logger.Warn("Failed to save export record", "fileName", record.FileName, "error", err)
	}
}

// persistExport writes a finished export into the export directory. Failure is
// logged and swallowed, the client already has the bytes in the response.
func (serverHandler *ServerHandler) persistExport(fileName string, data []byte) {
	path := filepath.Join(serverHandler.ServerConfig.ExportPath, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		Logger.Warn("Failed to persist export to disk", "path", path, "error", err)
		return
	}
	Logger.Debug("Export persisted", "path", path, "bytes", len(data))
}

// ExportPDF renders HTML to a PDF document
// @Summary Export HTML to PDF
// @Description Render the supplied HTML in a headless browser and return it as a PDF document
// @Tags Exports
// @Accept json
// @Produce application/pdf
// @Param request body ExportRequest true "Export parameters"
// @Success 200 {file} binary "PDF bytes"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 503 {object} map[string]interface{} "Browser unavailable"
// @Router /export/pdf [post]
func (serverHandler *ServerHandler) ExportPDF(context echo.Context) error {
	request := defaultExportRequest()
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.HTMLContent == "" {
		return errorJSON(context, http.StatusBadRequest, "html_content is required")
	}
	if request.Width <= 0 || request.Height <= 0 {
		return errorJSON(context, http.StatusBadRequest, "width and height must be positive")
	}
	if serverHandler.Renderer == nil {
		return errorJSON(context, http.StatusServiceUnavailable, "No browser executable available, PDF export is disabled")
	}

	widthMm := request.Width
	heightMm := request.Height
	if !request.IsMm {
		widthMm = render.PixelsToMm(request.Width)
		heightMm = render.PixelsToMm(request.Height)
	}

	data, err := serverHandler.Renderer.RenderPDF(context.Request().Context(), request.HTMLContent, widthMm, heightMm, request.Landscape)
	if err != nil {
		Logger.Error("PDF export failed", "error", err)
		return errorJSON(context, renderErrorStatus(err), err.Error())
	}

	fileName := exportFileName("pdf")
	record := database.ExportRecord{
		ID:         database.NewID(),
		CatalogID:  request.CatalogID,
		CardID:     request.CardID,
		Format:     "pdf",
		SizePreset: formatDimension(request.Width) + "x" + formatDimension(request.Height),
		Quality:    qualityTier(request.Optimize),
		FileName:   fileName,
		FileSize:   int64(len(data)),
		PageCount:  countPDFPages(data),
		CreatedAt:  time.Now(),
	}
	serverHandler.saveRecord(record)
	serverHandler.persistExport(fileName, data)
	serverHandler.writePDFThumbnail(fileName, data)

	context.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, fileName))
	return context.Blob(http.StatusOK, "application/pdf", data)
}

// ExportImage renders HTML to a PNG or JPEG image
// @Summary Export HTML to an image
// @Description Render the supplied HTML in a headless browser and return it as a PNG or JPEG screenshot
// @Tags Exports
// @Accept json
// @Produce image/png
// @Param request body ExportRequest true "Export parameters"
// @Success 200 {file} binary "Image bytes"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 503 {object} map[string]interface{} "Browser unavailable"
// @Router /export/image [post]
func (serverHandler *ServerHandler) ExportImage(context echo.Context) error {
	request := defaultExportRequest()
	request.Format = "png"
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.HTMLContent == "" {
		return errorJSON(context, http.StatusBadRequest, "html_content is required")
	}
	if request.Width <= 0 || request.Height <= 0 {
		return errorJSON(context, http.StatusBadRequest, "width and height must be positive")
	}

	format := normalizeImageFormat(request.Format)
	if format == "" {
		return errorJSON(context, http.StatusBadRequest, "format must be png or jpeg")
	}
	if serverHandler.Renderer == nil {
		return errorJSON(context, http.StatusServiceUnavailable, "No browser executable available, image export is disabled")
	}

	widthPx := int(request.Width)
	heightPx := int(request.Height)
	if request.IsMm {
		widthPx = render.MmToPixels(request.Width)
		heightPx = render.MmToPixels(request.Height)
	}
	if widthPx < 1 || heightPx < 1 {
		return errorJSON(context, http.StatusBadRequest, "dimensions are too small to render")
	}

	data, err := serverHandler.Renderer.RenderImage(context.Request().Context(), request.HTMLContent, widthPx, heightPx, request.Quality, format)
	if err != nil {
		Logger.Error("Image export failed", "format", format, "error", err)
		return errorJSON(context, renderErrorStatus(err), err.Error())
	}

	if request.Optimize {
		optimized, err := recompressImage(data, format)
		if err != nil {
			Logger.Warn("Image optimization failed, returning original", "error", err)
		} else {
			data = optimized
		}
	}

	ext := imageExtension(format)
	fileName := exportFileName(ext)
	record := database.ExportRecord{
		ID:         database.NewID(),
		CatalogID:  request.CatalogID,
		CardID:     request.CardID,
		Format:     format,
		SizePreset: fmt.Sprintf("%dx%d", widthPx, heightPx),
		Quality:    qualityTier(request.Optimize),
		FileName:   fileName,
		FileSize:   int64(len(data)),
		PageCount:  1,
		CreatedAt:  time.Now(),
	}
	serverHandler.saveRecord(record)
	serverHandler.persistExport(fileName, data)

	context.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, fileName))
	return context.Blob(http.StatusOK, imageMIME(format), data)
}

// normalizeImageFormat collapses the accepted spellings onto "png"/"jpeg",
// empty string means unsupported.
func normalizeImageFormat(format string) string {
	switch format {
	case "png":
		return "png"
	case "jpeg", "jpg":
		return "jpeg"
	default:
		return ""
	}
}

func imageExtension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return "png"
}

func imageMIME(format string) string {
	if format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
