package database

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Page is one page of a catalog, stored embedded in its catalog
type Page struct {
	ID        string         `json:"id"`
	Order     int            `json:"order"`
	Content   map[string]any `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Catalog is a multi-page document assembled in the studio
type Catalog struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ProductName string    `json:"product_name"`
	Tags        []string  `json:"tags"`
	TemplateID  string    `json:"template_id"`
	ThemeID     string    `json:"theme_id"`
	Pages       []Page    `json:"pages"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Card is a single-page greeting or condolence card
type Card struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CardType  string         `json:"card_type"`
	Content   map[string]any `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Theme is a colour and font palette applied to catalogs
type Theme struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PrimaryColor    string    `json:"primary_color"`
	SecondaryColor  string    `json:"secondary_color"`
	AccentColor     string    `json:"accent_color"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	HeadingFont     string    `json:"heading_font"`
	BodyFont        string    `json:"body_font"`
	AccentFont      string    `json:"accent_font"`
	IsPreset        bool      `json:"is_preset"`
	CreatedAt       time.Time `json:"created_at"`
}

// GlossaryTerm is a term whose translation is pinned
type GlossaryTerm struct {
	ID            string `json:"id"`
	SourceTerm    string `json:"source_term"`
	TargetTerm    string `json:"target_term"`
	Locked        bool   `json:"locked"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// ExportRecord is one provenance row per completed export.
// Rows are append-only; nothing in the export path reads them back.
type ExportRecord struct {
	ID         string    `json:"id"`
	CatalogID  string    `json:"catalog_id"`
	CardID     string    `json:"card_id"`
	Format     string    `json:"format"`
	SizePreset string    `json:"size_preset"`
	Quality    string    `json:"quality"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	PageCount  int       `json:"page_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository defines database operations
type Repository interface {
	Close() error
	// Export provenance
	SaveExportRecord(record *ExportRecord) error
	GetExportHistory(limit int) ([]ExportRecord, error)
	// Catalogs (pages travel embedded in the catalog)
	SaveCatalog(catalog *Catalog) error
	GetCatalog(id string) (*Catalog, error)
	GetCatalogs(search string, tag string) ([]Catalog, error)
	DeleteCatalog(id string) error
	// Cards
	SaveCard(card *Card) error
	GetCard(id string) (*Card, error)
	GetCards(cardType string, search string) ([]Card, error)
	DeleteCard(id string) error
	// Themes
	SaveTheme(theme *Theme) error
	GetTheme(id string) (*Theme, error)
	GetThemes() ([]Theme, error)
	DeleteTheme(id string) error
	// Glossary
	SaveGlossaryTerm(term *GlossaryTerm) error
	GetGlossaryTerm(id string) (*GlossaryTerm, error)
	GetGlossaryTerms() ([]GlossaryTerm, error)
	DeleteGlossaryTerm(id string) error
}

// DefaultThemes are seeded at startup and cannot be deleted
var DefaultThemes = []Theme{
	{ID: "demart-corporate", Name: "Demart Corporate", PrimaryColor: "#004aad", SecondaryColor: "#003c8f", AccentColor: "#f59e0b", BackgroundColor: "#f8fafc", TextColor: "#0f172a", HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed", IsPreset: true},
	{ID: "dark-tech", Name: "Dark Tech", PrimaryColor: "#0ea5e9", SecondaryColor: "#0f172a", AccentColor: "#22d3ee", BackgroundColor: "#020617", TextColor: "#f8fafc", HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed", IsPreset: true},
	{ID: "minimal-premium", Name: "Minimal Premium", PrimaryColor: "#18181b", SecondaryColor: "#3f3f46", AccentColor: "#a1a1aa", BackgroundColor: "#ffffff", TextColor: "#18181b", HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed", IsPreset: true},
	{ID: "industrial-green", Name: "Industrial Green", PrimaryColor: "#166534", SecondaryColor: "#14532d", AccentColor: "#facc15", BackgroundColor: "#f0fdf4", TextColor: "#14532d", HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed", IsPreset: true},
}

// DefaultGlossary terms are seeded at startup, locked so translation keeps them verbatim
var DefaultGlossary = []GlossaryTerm{
	{ID: "g1", SourceTerm: "EasiDrive", TargetTerm: "EasiDrive", Locked: true, CaseSensitive: true},
	{ID: "g2", SourceTerm: "VPI", TargetTerm: "VPI", Locked: true, CaseSensitive: true},
	{ID: "g3", SourceTerm: "Netherlocks", TargetTerm: "Netherlocks", Locked: true, CaseSensitive: true},
	{ID: "g4", SourceTerm: "Sofis", TargetTerm: "Sofis", Locked: true, CaseSensitive: true},
	{ID: "g5", SourceTerm: "Demart", TargetTerm: "Demart", Locked: true, CaseSensitive: true},
}

// NewPage builds a fresh page with the given order and template
func NewPage(order int, templateID string) Page {
	now := time.Now().UTC()
	return Page{
		ID:        NewID(),
		Order:     order,
		Content:   map[string]any{"template_id": templateID},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewCatalog builds a catalog with one initial page
func NewCatalog(name, productName, templateID string, tags []string) *Catalog {
	now := time.Now().UTC()
	if templateID == "" {
		templateID = "industrial-product-alert"
	}
	if tags == nil {
		tags = []string{}
	}
	return &Catalog{
		ID:          NewID(),
		Name:        name,
		ProductName: productName,
		Tags:        tags,
		TemplateID:  templateID,
		ThemeID:     "demart-corporate",
		Pages:       []Page{NewPage(0, templateID)},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewID returns a fresh ULID string for entity and record keys
func NewID() string {
	newULID, err := CalculateUUID(time.Now())
	if err != nil {
		return ulid.Make().String()
	}
	return newULID.String()
}

// CalculateUUID for the given creation time
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
