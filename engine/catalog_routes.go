package engine

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/database"
)

type createCatalogRequest struct {
	Name        string   `json:"name"`
	ProductName string   `json:"product_name"`
	Tags        []string `json:"tags"`
	TemplateID  string   `json:"template_id"`
}

// updateCatalogRequest uses pointers so absent fields leave the stored
// catalog untouched
type updateCatalogRequest struct {
	Name        *string   `json:"name"`
	ProductName *string   `json:"product_name"`
	Tags        *[]string `json:"tags"`
	TemplateID  *string   `json:"template_id"`
	ThemeID     *string   `json:"theme_id"`
}

type pageContentRequest struct {
	TemplateID string                 `json:"template_id"`
	Content    map[string]interface{} `json:"content"`
}

// GetCatalogs lists catalogs, optionally filtered
// @Summary List catalogs
// @Description Retrieve all catalogs ordered by last update, optionally filtered by a name search term and a tag
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param search query string false "Substring to match against catalog and product names"
// @Param tag query string false "Only catalogs carrying this tag"
// @Success 200 {array} database.Catalog "Catalogs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /catalogs [get]
func (serverHandler *ServerHandler) GetCatalogs(context echo.Context) error {
	search := context.QueryParam("search")
	tag := context.QueryParam("tag")

	catalogs, err := serverHandler.DB.GetCatalogs(search, tag)
	if err != nil {
		Logger.Error("Failed to list catalogs", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to list catalogs")
	}
	if catalogs == nil {
		catalogs = []database.Catalog{}
	}
	return context.JSON(http.StatusOK, catalogs)
}

// CreateCatalog creates a new catalog with one initial page
// @Summary Create a catalog
// @Description Create a new catalog with a single initial page using the given template
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param request body createCatalogRequest true "Catalog parameters"
// @Success 200 {object} database.Catalog "Created catalog"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /catalogs [post]
func (serverHandler *ServerHandler) CreateCatalog(context echo.Context) error {
	var request createCatalogRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.Name == "" {
		return errorJSON(context, http.StatusBadRequest, "name is required")
	}

	catalog := database.NewCatalog(request.Name, request.ProductName, request.TemplateID, request.Tags)
	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to create catalog", "name", request.Name, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to create catalog")
	}
	Logger.Info("Catalog created", "id", catalog.ID, "name", catalog.Name)
	return context.JSON(http.StatusOK, catalog)
}

// GetCatalog returns one catalog by id
// @Summary Get a catalog
// @Description Retrieve a single catalog with its pages by id
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Success 200 {object} database.Catalog "Catalog"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Router /catalogs/{id} [get]
func (serverHandler *ServerHandler) GetCatalog(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}
	return context.JSON(http.StatusOK, catalog)
}

// UpdateCatalog applies a partial update to a catalog
// @Summary Update a catalog
// @Description Apply a partial update to a catalog's metadata, bumping its version
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Param request body updateCatalogRequest true "Fields to change"
// @Success 200 {object} database.Catalog "Updated catalog"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Router /catalogs/{id} [put]
func (serverHandler *ServerHandler) UpdateCatalog(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}

	var request updateCatalogRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.Name != nil {
		if *request.Name == "" {
			return errorJSON(context, http.StatusBadRequest, "name cannot be empty")
		}
		catalog.Name = *request.Name
	}
	if request.ProductName != nil {
		catalog.ProductName = *request.ProductName
	}
	if request.Tags != nil {
		catalog.Tags = *request.Tags
	}
	if request.TemplateID != nil {
		catalog.TemplateID = *request.TemplateID
	}
	if request.ThemeID != nil {
		catalog.ThemeID = *request.ThemeID
	}
	catalog.Version++
	catalog.UpdatedAt = time.Now()

	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to update catalog", "id", catalog.ID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to update catalog")
	}
	return context.JSON(http.StatusOK, catalog)
}

// DeleteCatalog removes a catalog
// @Summary Delete a catalog
// @Description Delete a catalog and its pages
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Router /catalogs/{id} [delete]
func (serverHandler *ServerHandler) DeleteCatalog(context echo.Context) error {
	id := context.Param("id")
	if err := serverHandler.DB.DeleteCatalog(id); err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}
	Logger.Info("Catalog deleted", "id", id)
	return context.JSON(http.StatusOK, map[string]interface{}{"deleted": id})
}

// DuplicateCatalog clones a catalog under a new identity
// @Summary Duplicate a catalog
// @Description Create a full copy of a catalog with fresh ids, a "(Copy)" name suffix and version reset to 1
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Success 200 {object} database.Catalog "The new catalog"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Router /catalogs/{id}/duplicate [post]
func (serverHandler *ServerHandler) DuplicateCatalog(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}

	now := time.Now()
	duplicate := *catalog
	duplicate.ID = database.NewID()
	duplicate.Name = catalog.Name + " (Copy)"
	duplicate.Version = 1
	duplicate.CreatedAt = now
	duplicate.UpdatedAt = now
	duplicate.Tags = append([]string(nil), catalog.Tags...)
	duplicate.Pages = make([]database.Page, len(catalog.Pages))
	for i, page := range catalog.Pages {
		page.ID = database.NewID()
		page.CreatedAt = now
		page.UpdatedAt = now
		duplicate.Pages[i] = page
	}

	if err := serverHandler.DB.SaveCatalog(&duplicate); err != nil {
		Logger.Error("Failed to duplicate catalog", "source", catalog.ID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to duplicate catalog")
	}
	Logger.Info("Catalog duplicated", "source", catalog.ID, "duplicate", duplicate.ID)
	return context.JSON(http.StatusOK, duplicate)
}

// AddPage appends a page to a catalog
// @Summary Add a page
// @Description Append a new page to the end of a catalog
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Param request body pageContentRequest true "Page parameters"
// @Success 200 {object} database.Catalog "Updated catalog"
// @Failure 404 {object} map[string]interface{} "Catalog not found"
// @Router /catalogs/{id}/pages [post]
func (serverHandler *ServerHandler) AddPage(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}

	var request pageContentRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	templateID := request.TemplateID
	if templateID == "" {
		templateID = catalog.TemplateID
	}

	page := database.NewPage(len(catalog.Pages), templateID)
	for key, value := range request.Content {
		page.Content[key] = value
	}
	catalog.Pages = append(catalog.Pages, page)
	catalog.UpdatedAt = time.Now()

	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to add page", "catalog", catalog.ID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to add page")
	}
	return context.JSON(http.StatusOK, catalog)
}

// UpdatePage replaces the content of one page
// @Summary Update a page
// @Description Replace the content of a single catalog page
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Param pageId path string true "Page id"
// @Param request body pageContentRequest true "New page content"
// @Success 200 {object} database.Catalog "Updated catalog"
// @Failure 404 {object} map[string]interface{} "Catalog or page not found"
// @Router /catalogs/{id}/pages/{pageId} [put]
func (serverHandler *ServerHandler) UpdatePage(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}

	var request pageContentRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}

	pageID := context.Param("pageId")
	found := false
	now := time.Now()
	for i := range catalog.Pages {
		if catalog.Pages[i].ID != pageID {
			continue
		}
		if request.Content != nil {
			catalog.Pages[i].Content = request.Content
		}
		if request.TemplateID != "" {
			catalog.Pages[i].Content["template_id"] = request.TemplateID
		}
		catalog.Pages[i].UpdatedAt = now
		found = true
		break
	}
	if !found {
		return errorJSON(context, http.StatusNotFound, "Page not found")
	}
	catalog.UpdatedAt = now

	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to update page", "catalog", catalog.ID, "page", pageID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to update page")
	}
	return context.JSON(http.StatusOK, catalog)
}

// DeletePage removes one page from a catalog
// @Summary Delete a page
// @Description Remove a page from a catalog. The last remaining page cannot be deleted.
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Param pageId path string true "Page id"
// @Success 200 {object} database.Catalog "Updated catalog"
// @Failure 400 {object} map[string]interface{} "Last page cannot be deleted"
// @Failure 404 {object} map[string]interface{} "Catalog or page not found"
// @Router /catalogs/{id}/pages/{pageId} [delete]
func (serverHandler *ServerHandler) DeletePage(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}
	if len(catalog.Pages) <= 1 {
		return errorJSON(context, http.StatusBadRequest, "A catalog must keep at least one page")
	}

	pageID := context.Param("pageId")
	index := -1
	for i := range catalog.Pages {
		if catalog.Pages[i].ID == pageID {
			index = i
			break
		}
	}
	if index == -1 {
		return errorJSON(context, http.StatusNotFound, "Page not found")
	}

	catalog.Pages = append(catalog.Pages[:index], catalog.Pages[index+1:]...)
	for i := range catalog.Pages {
		catalog.Pages[i].Order = i
	}
	catalog.UpdatedAt = time.Now()

	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to delete page", "catalog", catalog.ID, "page", pageID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to delete page")
	}
	return context.JSON(http.StatusOK, catalog)
}

// DuplicatePage inserts a copy of a page directly after the original
// @Summary Duplicate a page
// @Description Insert a copy of a page, with a fresh id, directly after the original
// @Tags Catalogs
// @Accept json
// @Produce json
// @Param id path string true "Catalog id"
// @Param pageId path string true "Page id"
// @Success 200 {object} database.Catalog "Updated catalog"
// @Failure 404 {object} map[string]interface{} "Catalog or page not found"
// @Router /catalogs/{id}/pages/{pageId}/duplicate [post]
func (serverHandler *ServerHandler) DuplicatePage(context echo.Context) error {
	catalog, err := serverHandler.DB.GetCatalog(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Catalog not found")
	}

	pageID := context.Param("pageId")
	index := -1
	for i := range catalog.Pages {
		if catalog.Pages[i].ID == pageID {
			index = i
			break
		}
	}
	if index == -1 {
		return errorJSON(context, http.StatusNotFound, "Page not found")
	}

	now := time.Now()
	copied := catalog.Pages[index]
	copied.ID = database.NewID()
	copied.CreatedAt = now
	copied.UpdatedAt = now
	content := make(map[string]interface{}, len(catalog.Pages[index].Content))
	for key, value := range catalog.Pages[index].Content {
		content[key] = value
	}
	copied.Content = content

	catalog.Pages = append(catalog.Pages[:index+1], append([]database.Page{copied}, catalog.Pages[index+1:]...)...)
	for i := range catalog.Pages {
		catalog.Pages[i].Order = i
	}
	catalog.UpdatedAt = now

	if err := serverHandler.DB.SaveCatalog(catalog); err != nil {
		Logger.Error("Failed to duplicate page", "catalog", catalog.ID, "page", pageID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to duplicate page")
	}
	return context.JSON(http.StatusOK, catalog)
}
