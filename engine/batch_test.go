package engine

import (
	"archive/zip"
	"bytes"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeCatalogName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pro Creative Studio", "Pro_Creative_Studio"},
		{"valves/and\\actuators", "valvesandactuators"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "export"},
		{strings.Repeat("a", 40), strings.Repeat("a", 30)},
	}
	for _, testCase := range cases {
		if got := sanitizeCatalogName(testCase.in); got != testCase.want {
			t.Errorf("sanitizeCatalogName(%q) = %q, want %q", testCase.in, got, testCase.want)
		}
	}
}

func TestApplyPresetDefaults(t *testing.T) {
	preset := BatchPreset{}
	applyPresetDefaults(&preset)

	if preset.Format != "png" {
		t.Errorf("format = %q, want png", preset.Format)
	}
	if preset.Width != 1080 || preset.Height != 1080 {
		t.Errorf("dimensions = %gx%g, want 1080x1080", preset.Width, preset.Height)
	}
	if preset.Quality != 90 {
		t.Errorf("quality = %d, want 90", preset.Quality)
	}
	if preset.Label != "1080x1080" {
		t.Errorf("label = %q, want 1080x1080", preset.Label)
	}
	if preset.IsMm {
		t.Error("is_mm should default to false")
	}
}

func TestExportBatchArchive(t *testing.T) {
	handler := newTestHandler(t, &stubRenderer{})

	recorder := doJSON(t, handler, http.MethodPost, "/api/export/batch", map[string]any{
		"html_content": "<h1>catalog</h1>",
		"catalog_name": "EasiDrive Pro",
		"presets": []map[string]any{
			{},
			{"format": "jpeg", "width": 800, "height": 600, "label": "web"},
			{"format": "pdf", "width": 210, "height": 297, "is_mm": true, "label": "a4"},
		},
	}, handler.ExportBatch)
	requireStatus(t, recorder, http.StatusOK)

	if got := recorder.Header().Get(BatchErrorsHeader); got != "" {
		t.Errorf("unexpected batch errors: %q", got)
	}

	reader, err := zip.NewReader(bytes.NewReader(recorder.Body.Bytes()), int64(recorder.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	if len(reader.File) != 3 {
		t.Fatalf("archive has %d entries, want 3", len(reader.File))
	}

	stem := "EasiDrive_Pro_" + time.Now().Format("20060102")
	wantNames := map[string]bool{
		stem + "_1080x1080.png": true,
		stem + "_web.jpg":       true,
		stem + "_a4.pdf":        true,
	}
	for _, entry := range reader.File {
		if !wantNames[entry.Name] {
			t.Errorf("unexpected archive entry %q", entry.Name)
			continue
		}
		delete(wantNames, entry.Name)

		file, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry %q: %v", entry.Name, err)
		}
		var content bytes.Buffer
		if _, err := content.ReadFrom(file); err != nil {
			t.Fatalf("read entry %q: %v", entry.Name, err)
		}
		file.Close()

		switch filepath.Ext(entry.Name) {
		case ".png", ".jpg":
			if _, _, err := image.DecodeConfig(bytes.NewReader(content.Bytes())); err != nil {
				t.Errorf("entry %q is not a decodable image: %v", entry.Name, err)
			}
		case ".pdf":
			if !strings.Contains(content.String(), "210.00x297.00") {
				t.Errorf("pdf entry did not render at A4: %s", content.String())
			}
		}
	}
	if len(wantNames) != 0 {
		t.Errorf("missing archive entries: %v", wantNames)
	}

	// the archive itself lands in the export directory
	persisted, err := filepath.Glob(filepath.Join(handler.ServerConfig.ExportPath, stem+"_batch.zip"))
	if err != nil || len(persisted) != 1 {
		t.Fatalf("expected persisted archive, got %v (err %v)", persisted, err)
	}

	// one provenance record per successful preset
	records, err := handler.DB.GetExportHistory(10)
	if err != nil {
		t.Fatalf("GetExportHistory: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 export records, got %d", len(records))
	}
}

func TestExportBatchSkipsFailedPresets(t *testing.T) {
	handler := newTestHandler(t, &stubRenderer{})

	recorder := doJSON(t, handler, http.MethodPost, "/api/export/batch", map[string]any{
		"html_content": "<h1>catalog</h1>",
		"presets": []map[string]any{
			{"label": "good"},
			{"format": "webp", "label": "bad"},
		},
	}, handler.ExportBatch)
	requireStatus(t, recorder, http.StatusOK)

	batchErrors := recorder.Header().Get(BatchErrorsHeader)
	if !strings.Contains(batchErrors, `"bad"`) {
		t.Errorf("failed preset not reported in %s: %q", BatchErrorsHeader, batchErrors)
	}

	reader, err := zip.NewReader(bytes.NewReader(recorder.Body.Bytes()), int64(recorder.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	if len(reader.File) != 1 {
		t.Errorf("archive has %d entries, want 1", len(reader.File))
	}
}

func TestExportBatchAllPresetsFail(t *testing.T) {
	handler := newTestHandler(t, &stubRenderer{})

	recorder := doJSON(t, handler, http.MethodPost, "/api/export/batch", map[string]any{
		"html_content": "<h1>catalog</h1>",
		"presets": []map[string]any{
			{"format": "webp"},
			{"format": "tiff"},
		},
	}, handler.ExportBatch)
	requireStatus(t, recorder, http.StatusInternalServerError)
}

func TestExportBatchPersistFailurePropagates(t *testing.T) {
	handler := newTestHandler(t, &stubRenderer{})
	handler.ServerConfig.ExportPath = filepath.Join(t.TempDir(), "missing", "nested")

	// the archive is the deliverable, so a failed write to the export
	// directory must fail the request
	recorder := doJSON(t, handler, http.MethodPost, "/api/export/batch", map[string]any{
		"html_content": "<h1>catalog</h1>",
		"presets":      []map[string]any{{"format": "png"}},
	}, handler.ExportBatch)
	requireStatus(t, recorder, http.StatusInternalServerError)
}

func TestExportBatchRequiresPresets(t *testing.T) {
	handler := newTestHandler(t, &stubRenderer{})

	recorder := doJSON(t, handler, http.MethodPost, "/api/export/batch", map[string]any{
		"html_content": "<h1>catalog</h1>",
	}, handler.ExportBatch)
	requireStatus(t, recorder, http.StatusBadRequest)
}
