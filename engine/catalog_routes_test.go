package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/demart/catalogstudio/database"
)

func decodeCatalog(t *testing.T, recorder *httptest.ResponseRecorder) database.Catalog {
	t.Helper()
	var catalog database.Catalog
	if err := json.Unmarshal(recorder.Body.Bytes(), &catalog); err != nil {
		t.Fatalf("decode catalog %q: %v", recorder.Body.String(), err)
	}
	return catalog
}

func createTestCatalog(t *testing.T, handler *ServerHandler, name string, tags []string) database.Catalog {
	t.Helper()
	recorder := doJSON(t, handler, http.MethodPost, "/api/catalogs", map[string]any{
		"name":         name,
		"product_name": "EasiDrive",
		"tags":         tags,
	}, handler.CreateCatalog)
	requireStatus(t, recorder, http.StatusOK)
	return decodeCatalog(t, recorder)
}

func TestCreateCatalogDefaults(t *testing.T) {
	handler := newTestHandler(t, nil)

	catalog := createTestCatalog(t, handler, "Valve Actuators", []string{"valves"})
	if catalog.ID == "" {
		t.Fatal("created catalog has no id")
	}
	if catalog.Version != 1 {
		t.Errorf("version = %d, want 1", catalog.Version)
	}
	if len(catalog.Pages) != 1 {
		t.Fatalf("new catalog has %d pages, want 1", len(catalog.Pages))
	}
	if catalog.TemplateID != "industrial-product-alert" {
		t.Errorf("template = %q, want industrial-product-alert", catalog.TemplateID)
	}
	if catalog.ThemeID != "demart-corporate" {
		t.Errorf("theme = %q, want demart-corporate", catalog.ThemeID)
	}
}

func TestCreateCatalogRequiresName(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doJSON(t, handler, http.MethodPost, "/api/catalogs", map[string]any{
		"product_name": "EasiDrive",
	}, handler.CreateCatalog)
	requireStatus(t, recorder, http.StatusBadRequest)
}

func TestUpdateCatalogPartial(t *testing.T) {
	handler := newTestHandler(t, nil)
	catalog := createTestCatalog(t, handler, "Valve Actuators", []string{"valves"})

	recorder := doJSON(t, handler, http.MethodPut, "/api/catalogs/"+catalog.ID, map[string]any{
		"name": "Valve Actuators 2026",
	}, handler.UpdateCatalog, "id", catalog.ID)
	requireStatus(t, recorder, http.StatusOK)

	updated := decodeCatalog(t, recorder)
	if updated.Name != "Valve Actuators 2026" {
		t.Errorf("name = %q, want the new name", updated.Name)
	}
	// untouched fields survive a partial update
	if updated.ProductName != "EasiDrive" {
		t.Errorf("product name = %q, want EasiDrive", updated.ProductName)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "valves" {
		t.Errorf("tags = %v, want [valves]", updated.Tags)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2 after one update", updated.Version)
	}
}

func TestCatalogNotFound(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doJSON(t, handler, http.MethodGet, "/api/catalogs/nope", nil, handler.GetCatalog, "id", "nope")
	requireStatus(t, recorder, http.StatusNotFound)

	recorder = doJSON(t, handler, http.MethodDelete, "/api/catalogs/nope", nil, handler.DeleteCatalog, "id", "nope")
	requireStatus(t, recorder, http.StatusNotFound)
}

func TestDuplicateCatalog(t *testing.T) {
	handler := newTestHandler(t, nil)
	catalog := createTestCatalog(t, handler, "Valve Actuators", []string{"valves"})

	recorder := doJSON(t, handler, http.MethodPost, "/api/catalogs/"+catalog.ID+"/duplicate", nil, handler.DuplicateCatalog, "id", catalog.ID)
	requireStatus(t, recorder, http.StatusOK)

	duplicate := decodeCatalog(t, recorder)
	if duplicate.ID == catalog.ID {
		t.Error("duplicate reuses the source id")
	}
	if duplicate.Name != "Valve Actuators (Copy)" {
		t.Errorf("duplicate name = %q, want the (Copy) suffix", duplicate.Name)
	}
	if duplicate.Version != 1 {
		t.Errorf("duplicate version = %d, want 1", duplicate.Version)
	}
	if len(duplicate.Pages) != len(catalog.Pages) {
		t.Fatalf("duplicate has %d pages, source has %d", len(duplicate.Pages), len(catalog.Pages))
	}
	for i := range duplicate.Pages {
		if duplicate.Pages[i].ID == catalog.Pages[i].ID {
			t.Errorf("page %d reuses the source page id", i)
		}
	}

	// both the source and the duplicate are now listed
	catalogs, err := handler.DB.GetCatalogs("", "")
	if err != nil || len(catalogs) != 2 {
		t.Fatalf("expected 2 catalogs, got %d (err %v)", len(catalogs), err)
	}
}

func TestPageLifecycle(t *testing.T) {
	handler := newTestHandler(t, nil)
	catalog := createTestCatalog(t, handler, "Valve Actuators", nil)
	firstPageID := catalog.Pages[0].ID

	// add a second page
	recorder := doJSON(t, handler, http.MethodPost, "/api/catalogs/"+catalog.ID+"/pages", map[string]any{
		"content": map[string]any{"headline": "torque tools"},
	}, handler.AddPage, "id", catalog.ID)
	requireStatus(t, recorder, http.StatusOK)
	catalog = decodeCatalog(t, recorder)
	if len(catalog.Pages) != 2 {
		t.Fatalf("catalog has %d pages after add, want 2", len(catalog.Pages))
	}
	secondPageID := catalog.Pages[1].ID
	if catalog.Pages[1].Order != 1 {
		t.Errorf("appended page order = %d, want 1", catalog.Pages[1].Order)
	}

	// update the second page's content
	recorder = doJSON(t, handler, http.MethodPut, "/", map[string]any{
		"content": map[string]any{"headline": "updated"},
	}, handler.UpdatePage, "id", catalog.ID, "pageId", secondPageID)
	requireStatus(t, recorder, http.StatusOK)
	catalog = decodeCatalog(t, recorder)
	if catalog.Pages[1].Content["headline"] != "updated" {
		t.Errorf("page content not updated: %v", catalog.Pages[1].Content)
	}

	// duplicate the first page, the copy slots in directly after it
	recorder = doJSON(t, handler, http.MethodPost, "/", nil, handler.DuplicatePage, "id", catalog.ID, "pageId", firstPageID)
	requireStatus(t, recorder, http.StatusOK)
	catalog = decodeCatalog(t, recorder)
	if len(catalog.Pages) != 3 {
		t.Fatalf("catalog has %d pages after duplicate, want 3", len(catalog.Pages))
	}
	if catalog.Pages[1].ID == firstPageID || catalog.Pages[1].ID == secondPageID {
		t.Error("duplicated page did not get a fresh id")
	}
	for i, page := range catalog.Pages {
		if page.Order != i {
			t.Errorf("page %d has order %d after duplicate", i, page.Order)
		}
	}

	// delete down to one page
	recorder = doJSON(t, handler, http.MethodDelete, "/", nil, handler.DeletePage, "id", catalog.ID, "pageId", catalog.Pages[1].ID)
	requireStatus(t, recorder, http.StatusOK)
	catalog = decodeCatalog(t, recorder)
	recorder = doJSON(t, handler, http.MethodDelete, "/", nil, handler.DeletePage, "id", catalog.ID, "pageId", secondPageID)
	requireStatus(t, recorder, http.StatusOK)
	catalog = decodeCatalog(t, recorder)
	if len(catalog.Pages) != 1 {
		t.Fatalf("catalog has %d pages after deletes, want 1", len(catalog.Pages))
	}

	// the last page is protected
	recorder = doJSON(t, handler, http.MethodDelete, "/", nil, handler.DeletePage, "id", catalog.ID, "pageId", catalog.Pages[0].ID)
	requireStatus(t, recorder, http.StatusBadRequest)
}

func TestGetTags(t *testing.T) {
	handler := newTestHandler(t, nil)
	createTestCatalog(t, handler, "One", []string{"valves", "actuators"})
	createTestCatalog(t, handler, "Two", []string{"actuators", "safety"})

	recorder := doJSON(t, handler, http.MethodGet, "/api/tags", nil, handler.GetTags)
	requireStatus(t, recorder, http.StatusOK)

	var tags []string
	if err := json.Unmarshal(recorder.Body.Bytes(), &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	want := []string{"actuators", "safety", "valves"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}
}
