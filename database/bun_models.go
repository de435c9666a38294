package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// BunExportRecord represents the export_history table for Bun ORM
type BunExportRecord struct {
	bun.BaseModel `bun:"table:export_history,alias:eh"`

	ID         string    `bun:"id,pk"`
	CatalogID  string    `bun:"catalog_id,default:''"`
	CardID     string    `bun:"card_id,default:''"`
	Format     string    `bun:"format,notnull"`
	SizePreset string    `bun:"size_preset,notnull"`
	Quality    string    `bun:"quality,notnull"`
	FileName   string    `bun:"file_name,default:''"`
	FileSize   int64     `bun:"file_size,default:0"`
	PageCount  int       `bun:"page_count,default:0"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToExportRecord converts BunExportRecord to ExportRecord
func (be *BunExportRecord) ToExportRecord() *ExportRecord {
	return &ExportRecord{
		ID:         be.ID,
		CatalogID:  be.CatalogID,
		CardID:     be.CardID,
		Format:     be.Format,
		SizePreset: be.SizePreset,
		Quality:    be.Quality,
		FileName:   be.FileName,
		FileSize:   be.FileSize,
		PageCount:  be.PageCount,
		CreatedAt:  be.CreatedAt,
	}
}

// FromExportRecord converts ExportRecord to BunExportRecord
func FromExportRecord(record *ExportRecord) *BunExportRecord {
	return &BunExportRecord{
		ID:         record.ID,
		CatalogID:  record.CatalogID,
		CardID:     record.CardID,
		Format:     record.Format,
		SizePreset: record.SizePreset,
		Quality:    record.Quality,
		FileName:   record.FileName,
		FileSize:   record.FileSize,
		PageCount:  record.PageCount,
		CreatedAt:  record.CreatedAt,
	}
}

// BunCatalog represents the catalogs table for Bun ORM.
// Pages and tags are stored as JSON text so they travel with the row,
// the same embedded shape the API exposes.
type BunCatalog struct {
	bun.BaseModel `bun:"table:catalogs,alias:c"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	ProductName string    `bun:"product_name,default:''"`
	Tags        string    `bun:"tags,default:'[]'"`
	TemplateID  string    `bun:"template_id,default:''"`
	ThemeID     string    `bun:"theme_id,default:''"`
	Pages       string    `bun:"pages,default:'[]'"`
	Version     int       `bun:"version,default:1"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToCatalog converts BunCatalog to Catalog
func (bc *BunCatalog) ToCatalog() (*Catalog, error) {
	var tags []string
	if err := json.Unmarshal([]byte(bc.Tags), &tags); err != nil {
		return nil, err
	}
	var pages []Page
	if err := json.Unmarshal([]byte(bc.Pages), &pages); err != nil {
		return nil, err
	}

	return &Catalog{
		ID:          bc.ID,
		Name:        bc.Name,
		ProductName: bc.ProductName,
		Tags:        tags,
		TemplateID:  bc.TemplateID,
		ThemeID:     bc.ThemeID,
		Pages:       pages,
		Version:     bc.Version,
		CreatedAt:   bc.CreatedAt,
		UpdatedAt:   bc.UpdatedAt,
	}, nil
}

// FromCatalog converts Catalog to BunCatalog
func FromCatalog(catalog *Catalog) (*BunCatalog, error) {
	tags, err := json.Marshal(catalog.Tags)
	if err != nil {
		return nil, err
	}
	pages, err := json.Marshal(catalog.Pages)
	if err != nil {
		return nil, err
	}

	return &BunCatalog{
		ID:          catalog.ID,
		Name:        catalog.Name,
		ProductName: catalog.ProductName,
		Tags:        string(tags),
		TemplateID:  catalog.TemplateID,
		ThemeID:     catalog.ThemeID,
		Pages:       string(pages),
		Version:     catalog.Version,
		CreatedAt:   catalog.CreatedAt,
		UpdatedAt:   catalog.UpdatedAt,
	}, nil
}

// BunCard represents the cards table for Bun ORM
type BunCard struct {
	bun.BaseModel `bun:"table:cards,alias:cd"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	CardType  string    `bun:"card_type,default:'greeting'"`
	Content   string    `bun:"content,default:'{}'"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToCard converts BunCard to Card
func (bc *BunCard) ToCard() (*Card, error) {
	var content map[string]any
	if err := json.Unmarshal([]byte(bc.Content), &content); err != nil {
		return nil, err
	}

	return &Card{
		ID:        bc.ID,
		Name:      bc.Name,
		CardType:  bc.CardType,
		Content:   content,
		CreatedAt: bc.CreatedAt,
		UpdatedAt: bc.UpdatedAt,
	}, nil
}

// FromCard converts Card to BunCard
func FromCard(card *Card) (*BunCard, error) {
	content, err := json.Marshal(card.Content)
	if err != nil {
		return nil, err
	}

	return &BunCard{
		ID:        card.ID,
		Name:      card.Name,
		CardType:  card.CardType,
		Content:   string(content),
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}, nil
}

// BunTheme represents the themes table for Bun ORM
type BunTheme struct {
	bun.BaseModel `bun:"table:themes,alias:t"`

	ID              string    `bun:"id,pk"`
	Name            string    `bun:"name,notnull"`
	PrimaryColor    string    `bun:"primary_color,default:''"`
	SecondaryColor  string    `bun:"secondary_color,default:''"`
	AccentColor     string    `bun:"accent_color,default:''"`
	BackgroundColor string    `bun:"background_color,default:''"`
	TextColor       string    `bun:"text_color,default:''"`
	HeadingFont     string    `bun:"heading_font,default:''"`
	BodyFont        string    `bun:"body_font,default:''"`
	AccentFont      string    `bun:"accent_font,default:''"`
	IsPreset        bool      `bun:"is_preset,default:false"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToTheme converts BunTheme to Theme
func (bt *BunTheme) ToTheme() *Theme {
	return &Theme{
		ID:              bt.ID,
		Name:            bt.Name,
		PrimaryColor:    bt.PrimaryColor,
		SecondaryColor:  bt.SecondaryColor,
		AccentColor:     bt.AccentColor,
		BackgroundColor: bt.BackgroundColor,
		TextColor:       bt.TextColor,
		HeadingFont:     bt.HeadingFont,
		BodyFont:        bt.BodyFont,
		AccentFont:      bt.AccentFont,
		IsPreset:        bt.IsPreset,
		CreatedAt:       bt.CreatedAt,
	}
}

// FromTheme converts Theme to BunTheme
func FromTheme(theme *Theme) *BunTheme {
	return &BunTheme{
		ID:              theme.ID,
		Name:            theme.Name,
		PrimaryColor:    theme.PrimaryColor,
		SecondaryColor:  theme.SecondaryColor,
		AccentColor:     theme.AccentColor,
		BackgroundColor: theme.BackgroundColor,
		TextColor:       theme.TextColor,
		HeadingFont:     theme.HeadingFont,
		BodyFont:        theme.BodyFont,
		AccentFont:      theme.AccentFont,
		IsPreset:        theme.IsPreset,
		CreatedAt:       theme.CreatedAt,
	}
}

// BunGlossaryTerm represents the glossary table for Bun ORM
type BunGlossaryTerm struct {
	bun.BaseModel `bun:"table:glossary,alias:g"`

	ID            string `bun:"id,pk"`
	SourceTerm    string `bun:"source_term,notnull"`
	TargetTerm    string `bun:"target_term,notnull"`
	Locked        bool   `bun:"locked,default:true"`
	CaseSensitive bool   `bun:"case_sensitive,default:true"`
}

// ToGlossaryTerm converts BunGlossaryTerm to GlossaryTerm
func (bg *BunGlossaryTerm) ToGlossaryTerm() *GlossaryTerm {
	return &GlossaryTerm{
		ID:            bg.ID,
		SourceTerm:    bg.SourceTerm,
		TargetTerm:    bg.TargetTerm,
		Locked:        bg.Locked,
		CaseSensitive: bg.CaseSensitive,
	}
}

// FromGlossaryTerm converts GlossaryTerm to BunGlossaryTerm
func FromGlossaryTerm(term *GlossaryTerm) *BunGlossaryTerm {
	return &BunGlossaryTerm{
		ID:            term.ID,
		SourceTerm:    term.SourceTerm,
		TargetTerm:    term.TargetTerm,
		Locked:        term.Locked,
		CaseSensitive: term.CaseSensitive,
	}
}
