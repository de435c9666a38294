package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
)

// recompressImage re-encodes rendered raster bytes at a fixed lower quality
// for web delivery. JPEG drops to quality 75, PNG gets maximum compression.
func recompressImage(data []byte, format string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for optimization: %w", err)
	}
	var buffer bytes.Buffer
	if format == "jpeg" {
		err = imaging.Encode(&buffer, img, imaging.JPEG, imaging.JPEGQuality(75))
	} else {
		err = imaging.Encode(&buffer, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return nil, fmt.Errorf("re-encode for optimization: %w", err)
	}
	return buffer.Bytes(), nil
}

// flattenToJPEG composites the image over a white background to drop any alpha
// channel, then encodes as JPEG.
func flattenToJPEG(img image.Image, quality int) ([]byte, error) {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flattened := imaging.Overlay(background, img, image.Pt(0, 0), 1.0)

	var buffer bytes.Buffer
	if err := imaging.Encode(&buffer, flattened, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func dataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// UploadImage normalizes an uploaded image for use inside a catalog page
// @Summary Upload and normalize an image
// @Description Accept an uploaded image, apply its EXIF orientation, flatten transparency onto white and return it as a base64 JPEG data URI
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {object} map[string]interface{} "Normalized image data"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /upload-image [post]
func (serverHandler *ServerHandler) UploadImage(context echo.Context) error {
	fileHeader, err := context.FormFile("file")
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "unable to open uploaded file")
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		Logger.Warn("Uploaded file could not be decoded as an image", "name", fileHeader.Filename, "error", err)
		return errorJSON(context, http.StatusBadRequest, "file is not a supported image")
	}

	encoded, err := flattenToJPEG(img, 95)
	if err != nil {
		Logger.Error("Failed to encode uploaded image", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "failed to process image")
	}

	bounds := img.Bounds()
	return context.JSON(http.StatusOK, map[string]interface{}{
		"image_data": dataURI("image/jpeg", encoded),
		"width":      bounds.Dx(),
		"height":     bounds.Dy(),
	})
}

// ResizeImage scales an uploaded image to the requested dimensions
// @Summary Resize an image
// @Description Resize an uploaded image with Lanczos resampling, keeping aspect ratio when height is omitted, with optional sharpening
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param width formData int true "Target width in pixels"
// @Param height formData int false "Target height in pixels (0 keeps aspect ratio)"
// @Param quality formData int false "JPEG quality (default: 90)"
// @Param sharpen formData bool false "Apply a light sharpen after resizing"
// @Param output_format formData string false "jpeg or png (default: jpeg)"
// @Success 200 {object} map[string]interface{} "Resized image data"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /resize-image [post]
func (serverHandler *ServerHandler) ResizeImage(context echo.Context) error {
	fileHeader, err := context.FormFile("file")
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "file is required")
	}

	width, err := strconv.Atoi(context.FormValue("width"))
	if err != nil || width < 1 {
		return errorJSON(context, http.StatusBadRequest, "width must be a positive integer")
	}
	height := 0
	if heightParam := context.FormValue("height"); heightParam != "" {
		if height, err = strconv.Atoi(heightParam); err != nil || height < 0 {
			return errorJSON(context, http.StatusBadRequest, "height must be a non-negative integer")
		}
	}
	quality := 90
	if qualityParam := context.FormValue("quality"); qualityParam != "" {
		if q, err := strconv.Atoi(qualityParam); err == nil && q >= 1 && q <= 100 {
			quality = q
		}
	}
	sharpen, _ := strconv.ParseBool(context.FormValue("sharpen"))
	outputFormat := normalizeImageFormat(context.FormValue("output_format"))
	if outputFormat == "" {
		outputFormat = "jpeg"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "unable to open uploaded file")
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "file is not a supported image")
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	if sharpen {
		resized = imaging.Sharpen(resized, 1.0)
	}

	var buffer bytes.Buffer
	mime := "image/png"
	if outputFormat == "jpeg" {
		mime = "image/jpeg"
		encoded, err := flattenToJPEG(resized, quality)
		if err != nil {
			Logger.Error("Failed to encode resized image", "error", err)
			return errorJSON(context, http.StatusInternalServerError, "failed to encode image")
		}
		buffer.Write(encoded)
	} else {
		if err := imaging.Encode(&buffer, resized, imaging.PNG); err != nil {
			Logger.Error("Failed to encode resized image", "error", err)
			return errorJSON(context, http.StatusInternalServerError, "failed to encode image")
		}
	}

	bounds := resized.Bounds()
	return context.JSON(http.StatusOK, map[string]interface{}{
		"image_data": dataURI(mime, buffer.Bytes()),
		"width":      bounds.Dx(),
		"height":     bounds.Dy(),
	})
}

// RemoveBackground is a placeholder for background removal
// @Summary Remove an image background
// @Description Background removal requires an external matting service which is not bundled, this endpoint always reports unavailable
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Failure 503 {object} map[string]interface{} "Not configured"
// @Router /remove-background [post]
func (serverHandler *ServerHandler) RemoveBackground(context echo.Context) error {
	return errorJSON(context, http.StatusServiceUnavailable, "Background removal is not configured on this server")
}
