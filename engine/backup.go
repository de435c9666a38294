package engine

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/database"
	"github.com/demart/catalogstudio/internal/build"
)

// backupManifest identifies a backup archive and the build that wrote it
type backupManifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	App       string    `json:"app"`
}

// writeBackupEntry marshals one payload into a named archive entry
func writeBackupEntry(archive *zip.Writer, name string, payload any) error {
	writer, err := archive.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if _, err := writer.Write(encoded); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// readBackupEntry decodes one JSON archive entry into target. The returned
// bool reports whether the entry was present; an absent entry is not an error.
func readBackupEntry(reader *zip.Reader, name string, target any) (bool, error) {
	file, err := reader.Open(name)
	if err != nil {
		return false, nil
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(target); err != nil {
		return true, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

// BackupExport packages a catalog with the full theme and glossary sets
// @Summary Export a project backup
// @Description Package one catalog together with all themes and glossary terms as a zip archive with a manifest
// @Tags Backup
// @Accept json
// @Produce application/zip
// @Param id path string true "Catalog ID"
// @Success 200 {file} binary "Backup archive"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /backup/export/{id} [post]
func (serverHandler *ServerHandler) BackupExport(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}
	themes, err := serverHandler.DB.GetThemes()
	if err != nil {
		Logger.Error("Failed to fetch themes for backup", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to build backup")
	}
	terms, err := serverHandler.DB.GetGlossaryTerms()
	if err != nil {
		Logger.Error("Failed to fetch glossary for backup", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to build backup")
	}

	manifest := backupManifest{
		Version:   "1.0",
		CreatedAt: time.Now().UTC(),
		App:       "CatalogStudio " + build.Version,
	}

	var buffer bytes.Buffer
	archive := zip.NewWriter(&buffer)
	entries := []struct {
		name    string
		payload any
	}{
		{"project.json", catalog},
		{"themes.json", themes},
		{"glossary.json", terms},
		{"manifest.json", manifest},
	}
	for _, entry := range entries {
		if err := writeBackupEntry(archive, entry.name, entry.payload); err != nil {
			Logger.Error("Failed to write backup entry", "entry", entry.name, "error", err)
			return errorJSON(context, http.StatusInternalServerError, "Failed to build backup")
		}
	}
	if err := archive.Close(); err != nil {
		Logger.Error("Failed to finalize backup archive", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to build backup")
	}

	zipName := fmt.Sprintf("backup_%s_%s.zip", sanitizeCatalogName(catalog.Name), time.Now().Format("20060102"))
	context.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, zipName))
	return context.Blob(http.StatusOK, "application/zip", buffer.Bytes())
}

// BackupImport restores a backup archive into the database
// @Summary Import a project backup
// @Description Restore a backup archive. Mode "new" (default) imports the catalog under fresh IDs with an " (Import)" name suffix; mode "overwrite" keeps the archived IDs and replaces existing rows. Preset themes are never overwritten.
// @Tags Backup
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Backup zip archive"
// @Param mode formData string false "Import mode: new or overwrite (default: new)"
// @Success 200 {object} map[string]interface{} "Imported catalog ID"
// @Failure 400 {object} map[string]interface{} "Invalid archive or mode"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /backup/import [post]
func (serverHandler *ServerHandler) BackupImport(context echo.Context) error {
	fileHeader, err := context.FormFile("file")
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "file is required")
	}
	mode := context.FormValue("mode")
	if mode == "" {
		mode = "new"
	}
	if mode != "new" && mode != "overwrite" {
		return errorJSON(context, http.StatusBadRequest, "mode must be new or overwrite")
	}

	source, err := fileHeader.Open()
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "Could not read uploaded file")
	}
	defer source.Close()
	contents, err := io.ReadAll(source)
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "Could not read uploaded file")
	}

	reader, err := zip.NewReader(bytes.NewReader(contents), int64(len(contents)))
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid backup archive")
	}

	var catalog database.Catalog
	found, err := readBackupEntry(reader, "project.json", &catalog)
	if err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid backup archive: "+err.Error())
	}
	if !found {
		return errorJSON(context, http.StatusBadRequest, "Invalid backup archive: project.json is missing")
	}
	var themes []database.Theme
	if _, err := readBackupEntry(reader, "themes.json", &themes); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid backup archive: "+err.Error())
	}
	var terms []database.GlossaryTerm
	if _, err := readBackupEntry(reader, "glossary.json", &terms); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid backup archive: "+err.Error())
	}

	if mode == "new" {
		catalog.ID = database.NewID()
		if catalog.Name == "" {
			catalog.Name = "Import"
		}
		catalog.Name += " (Import)"
		for i := range catalog.Pages {
			catalog.Pages[i].ID = database.NewID()
		}
	}
	catalog.UpdatedAt = time.Now().UTC()

	if err := serverHandler.DB.SaveCatalog(&catalog); err != nil {
		Logger.Error("Failed to import catalog", "id", catalog.ID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to import catalog")
	}
	for _, theme := range themes {
		// archived presets never replace the seeded ones
		if theme.IsPreset {
			continue
		}
		if err := serverHandler.DB.SaveTheme(&theme); err != nil {
			Logger.Error("Failed to import theme", "id", theme.ID, "error", err)
			return errorJSON(context, http.StatusInternalServerError, "Failed to import themes")
		}
	}
	for _, term := range terms {
		if err := serverHandler.DB.SaveGlossaryTerm(&term); err != nil {
			Logger.Error("Failed to import glossary term", "id", term.ID, "error", err)
			return errorJSON(context, http.StatusInternalServerError, "Failed to import glossary")
		}
	}

	Logger.Info("Backup imported", "catalog_id", catalog.ID, "mode", mode,
		"themes", len(themes), "glossary_terms", len(terms))
	return context.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Project imported",
		"catalog_id": catalog.ID,
	})
}
