package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

const thumbnailWidth = 480

// writePDFThumbnail rasterizes the first page of a persisted PDF export and
// writes a PNG preview next to it. Best-effort: any failure is logged and
// swallowed, previews are a convenience for the export browser UI.
func (serverHandler *ServerHandler) writePDFThumbnail(fileName string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Warn("Recovered from panic while generating PDF thumbnail", "fileName", fileName, "panic", r)
		}
	}()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		Logger.Warn("Unable to open PDF for thumbnail generation", "fileName", fileName, "error", err)
		return
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return
	}
	pageImage, err := doc.Image(0)
	if err != nil {
		Logger.Warn("Unable to rasterize PDF first page", "fileName", fileName, "error", err)
		return
	}

	thumbnail := imaging.Resize(pageImage, thumbnailWidth, 0, imaging.Lanczos)
	thumbName := strings.TrimSuffix(fileName, ".pdf") + "_thumb.png"
	thumbPath := filepath.Join(serverHandler.ServerConfig.ExportPath, thumbName)

	out, err := os.Create(thumbPath)
	if err != nil {
		Logger.Warn("Unable to create thumbnail file", "path", thumbPath, "error", err)
		return
	}
	defer out.Close()

	if err := imaging.Encode(out, thumbnail, imaging.PNG); err != nil {
		Logger.Warn("Unable to encode thumbnail", "path", thumbPath, "error", err)
		return
	}
	Logger.Debug("PDF thumbnail written", "path", thumbPath)
}
