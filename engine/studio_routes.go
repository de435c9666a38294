package engine

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/database"
)

type createCardRequest struct {
	Name     string                 `json:"name"`
	CardType string                 `json:"card_type"`
	Content  map[string]interface{} `json:"content"`
}

type updateCardRequest struct {
	Name    *string                 `json:"name"`
	Content *map[string]interface{} `json:"content"`
}

// GetCards lists standalone cards
// @Summary List cards
// @Description Retrieve all cards ordered by last update, optionally filtered by card type and a name search term
// @Tags Cards
// @Accept json
// @Produce json
// @Param card_type query string false "Only cards of this type"
// @Param search query string false "Substring to match against card names"
// @Success 200 {array} database.Card "Cards"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /cards [get]
func (serverHandler *ServerHandler) GetCards(context echo.Context) error {
	cards, err := serverHandler.DB.GetCards(context.QueryParam("card_type"), context.QueryParam("search"))
	if err != nil {
		Logger.Error("Failed to list cards", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to list cards")
	}
	if cards == nil {
		cards = []database.Card{}
	}
	return context.JSON(http.StatusOK, cards)
}

// CreateCard creates a standalone card
// @Summary Create a card
// @Description Create a new standalone card. Condolence cards receive a dark background and the classic condolence template by default.
// @Tags Cards
// @Accept json
// @Produce json
// @Param request body createCardRequest true "Card parameters"
// @Success 200 {object} database.Card "Created card"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /cards [post]
func (serverHandler *ServerHandler) CreateCard(context echo.Context) error {
	var request createCardRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.Name == "" {
		request.Name = "New Card"
	}
	if request.Content == nil {
		request.Content = map[string]interface{}{}
	}
	if request.CardType == "condolence" {
		if _, ok := request.Content["background"]; !ok {
			request.Content["background"] = "#1e293b"
		}
		if _, ok := request.Content["template_id"]; !ok {
			request.Content["template_id"] = "condolence-classic"
		}
	}

	now := time.Now()
	card := database.Card{
		ID:        database.NewID(),
		Name:      request.Name,
		CardType:  request.CardType,
		Content:   request.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := serverHandler.DB.SaveCard(&card); err != nil {
		Logger.Error("Failed to create card", "name", card.Name, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to create card")
	}
	Logger.Info("Card created", "id", card.ID, "type", card.CardType)
	return context.JSON(http.StatusOK, card)
}

// GetCard returns one card by id
// @Summary Get a card
// @Description Retrieve a single card by id
// @Tags Cards
// @Accept json
// @Produce json
// @Param id path string true "Card id"
// @Success 200 {object} database.Card "Card"
// @Failure 404 {object} map[string]interface{} "Card not found"
// @Router /cards/{id} [get]
func (serverHandler *ServerHandler) GetCard(context echo.Context) error {
	card, err := serverHandler.DB.GetCard(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Card not found")
	}
	return context.JSON(http.StatusOK, card)
}

// UpdateCard applies a partial update to a card
// @Summary Update a card
// @Description Apply a partial update to a card's name or content
// @Tags Cards
// @Accept json
// @Produce json
// @Param id path string true "Card id"
// @Param request body updateCardRequest true "Fields to change"
// @Success 200 {object} database.Card "Updated card"
// @Failure 404 {object} map[string]interface{} "Card not found"
// @Router /cards/{id} [put]
func (serverHandler *ServerHandler) UpdateCard(context echo.Context) error {
	card, err := serverHandler.DB.GetCard(context.Param("id"))
	if err != nil {
		return notFoundOr500(context, err, "Card not found")
	}

	var request updateCardRequest
	if err := context.Bind(&request); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if request.Name != nil {
		card.Name = *request.Name
	}
	if request.Content != nil {
		card.Content = *request.Content
	}
	card.UpdatedAt = time.Now()

	if err := serverHandler.DB.SaveCard(card); err != nil {
		Logger.Error("Failed to update card", "id", card.ID, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to update card")
	}
	return context.JSON(http.StatusOK, card)
}

// DeleteCard removes a card
// @Summary Delete a card
// @Description Delete a card by id
// @Tags Cards
// @Accept json
// @Produce json
// @Param id path string true "Card id"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Card not found"
// @Router /cards/{id} [delete]
func (serverHandler *ServerHandler) DeleteCard(context echo.Context) error {
	id := context.Param("id")
	if err := serverHandler.DB.DeleteCard(id); err != nil {
		return notFoundOr500(context, err, "Card not found")
	}
	return context.JSON(http.StatusOK, map[string]interface{}{"deleted": id})
}

// GetThemes lists all themes
// @Summary List themes
// @Description Retrieve all themes, presets included
// @Tags Themes
// @Accept json
// @Produce json
// @Success 200 {array} database.Theme "Themes"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /themes [get]
func (serverHandler *ServerHandler) GetThemes(context echo.Context) error {
	themes, err := serverHandler.DB.GetThemes()
	if err != nil {
		Logger.Error("Failed to list themes", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to list themes")
	}
	if themes == nil {
		themes = []database.Theme{}
	}
	return context.JSON(http.StatusOK, themes)
}

// CreateTheme stores a custom theme
// @Summary Create a theme
// @Description Create a custom colour and font theme
// @Tags Themes
// @Accept json
// @Produce json
// @Param request body database.Theme true "Theme"
// @Success 200 {object} database.Theme "Created theme"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /themes [post]
func (serverHandler *ServerHandler) CreateTheme(context echo.Context) error {
	var theme database.Theme
	if err := context.Bind(&theme); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if theme.Name == "" {
		return errorJSON(context, http.StatusBadRequest, "name is required")
	}
	theme.ID = database.NewID()
	theme.IsPreset = false // user themes can never masquerade as presets
	theme.CreatedAt = time.Now()

	if err := serverHandler.DB.SaveTheme(&theme); err != nil {
		Logger.Error("Failed to create theme", "name", theme.Name, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to create theme")
	}
	return context.JSON(http.StatusOK, theme)
}

// DeleteTheme removes a custom theme
// @Summary Delete a theme
// @Description Delete a custom theme. Preset themes cannot be deleted.
// @Tags Themes
// @Accept json
// @Produce json
// @Param id path string true "Theme id"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 400 {object} map[string]interface{} "Preset themes cannot be deleted"
// @Failure 404 {object} map[string]interface{} "Theme not found"
// @Router /themes/{id} [delete]
func (serverHandler *ServerHandler) DeleteTheme(context echo.Context) error {
	id := context.Param("id")
	theme, err := serverHandler.DB.GetTheme(id)
	if err != nil {
		return notFoundOr500(context, err, "Theme not found")
	}
	if theme.IsPreset {
		return errorJSON(context, http.StatusBadRequest, "Preset themes cannot be deleted")
	}
	if err := serverHandler.DB.DeleteTheme(id); err != nil {
		return notFoundOr500(context, err, "Theme not found")
	}
	return context.JSON(http.StatusOK, map[string]interface{}{"deleted": id})
}

// GetGlossary lists the pinned translation terms
// @Summary List glossary terms
// @Description Retrieve all pinned translation terms
// @Tags Glossary
// @Accept json
// @Produce json
// @Success 200 {array} database.GlossaryTerm "Glossary terms"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /glossary [get]
func (serverHandler *ServerHandler) GetGlossary(context echo.Context) error {
	terms, err := serverHandler.DB.GetGlossaryTerms()
	if err != nil {
		Logger.Error("Failed to list glossary terms", "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to list glossary terms")
	}
	if terms == nil {
		terms = []database.GlossaryTerm{}
	}
	return context.JSON(http.StatusOK, terms)
}

// SaveGlossaryTerm creates or updates a glossary term
// @Summary Save a glossary term
// @Description Create a new glossary term, or update an existing one when an id is supplied
// @Tags Glossary
// @Accept json
// @Produce json
// @Param request body database.GlossaryTerm true "Glossary term"
// @Success 200 {object} database.GlossaryTerm "Saved term"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /glossary [post]
func (serverHandler *ServerHandler) SaveGlossaryTerm(context echo.Context) error {
	var term database.GlossaryTerm
	if err := context.Bind(&term); err != nil {
		return errorJSON(context, http.StatusBadRequest, "Invalid request body")
	}
	if term.SourceTerm == "" {
		return errorJSON(context, http.StatusBadRequest, "source_term is required")
	}
	if term.ID == "" {
		term.ID = database.NewID()
	}

	if err := serverHandler.DB.SaveGlossaryTerm(&term); err != nil {
		Logger.Error("Failed to save glossary term", "source", term.SourceTerm, "error", err)
		return errorJSON(context, http.StatusInternalServerError, "Failed to save glossary term")
	}
	return context.JSON(http.StatusOK, term)
}

// DeleteGlossaryTerm removes a glossary term
// @Summary Delete a glossary term
// @Description Delete a glossary term by id
// @Tags Glossary
// @Accept json
// @Produce json
// @Param id path string true "Term id"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Term not found"
// @Router /glossary/{id} [delete]
func (serverHandler *ServerHandler) DeleteGlossaryTerm(context echo.Context) error {
	id := context.Param("id")
	if err := serverHandler.DB.DeleteGlossaryTerm(id); err != nil {
		return notFoundOr500(context, err, "Term not found")
	}
	return context.JSON(http.StatusOK, map[string]interface{}{"deleted": id})
}
