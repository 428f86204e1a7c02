package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies the provenance bucket of a knowledge item.
// The set is closed; the database enforces it with a CHECK constraint.
type Source string

const (
	SourceAldeia    Source = "aldeia"
	SourceVirgolim  Source = "virgolim"
	SourceInstituto Source = "instituto"
	SourceOutros    Source = "outros"
)

// Sources lists all valid source tags.
var Sources = []Source{SourceAldeia, SourceVirgolim, SourceInstituto, SourceOutros}

// Valid reports whether s is one of the known source tags.
func (s Source) Valid() bool {
	switch s {
	case SourceAldeia, SourceVirgolim, SourceInstituto, SourceOutros:
		return true
	}
	return false
}

// Category identifies the topic bucket of a knowledge item. Closed set,
// enforced by a CHECK constraint.
type Category string

const (
	CategoryIdentificacao   Category = "identificacao"
	CategoryEducacao        Category = "educacao"
	CategoryFamilia         Category = "familia"
	CategoryDesenvolvimento Category = "desenvolvimento"
	CategoryMetodologias    Category = "metodologias"
	CategoryRecursos        Category = "recursos"
	CategoryCasos           Category = "casos"
	CategoryPesquisas       Category = "pesquisas"
)

// Categories lists all valid category tags.
var Categories = []Category{
	CategoryIdentificacao, CategoryEducacao, CategoryFamilia,
	CategoryDesenvolvimento, CategoryMetodologias, CategoryRecursos,
	CategoryCasos, CategoryPesquisas,
}

// Valid reports whether c is one of the known category tags.
func (c Category) Valid() bool {
	switch c {
	case CategoryIdentificacao, CategoryEducacao, CategoryFamilia,
		CategoryDesenvolvimento, CategoryMetodologias, CategoryRecursos,
		CategoryCasos, CategoryPesquisas:
		return true
	}
	return false
}

// Item is a stored unit of domain knowledge. Content is the passage used for
// grounding; the embedding is computed at ingestion time by the caller and
// never inside the store.
type Item struct {
	ID           uuid.UUID
	Title        string
	Content      string
	Source       Source
	Category     Category
	DocumentType string // original media tag (pdf, text, audio, ...), informational only
	FileURL      string
	Embedding    []float32
	Metadata     map[string]string // opaque to ranking
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Result is an Item plus its similarity to a query embedding, attached only at
// query time. Similarity is cosine, in [-1, 1].
type Result struct {
	Item       Item
	Similarity float64
}

// SearchParams parameterizes the server-side ranked search.
// Zero-value Source/Category mean "no filter".
type SearchParams struct {
	Threshold float64 // minimum similarity to keep
	Count     int     // maximum results
	Source    Source
	Category  Category
}

// ListFilters restricts a paginated listing. Zero values mean "no filter".
type ListFilters struct {
	Source   Source
	Category Category
}

// Page is one page of a stable listing ordered by creation time descending.
type Page struct {
	Items      []Item
	TotalCount int
	TotalPages int
}

// Patch carries a partial update. Nil fields are left untouched; updated_at is
// always refreshed.
type Patch struct {
	Title        *string
	Content      *string
	Source       *Source
	Category     *Category
	DocumentType *string
	FileURL      *string
	Embedding    []float32
	Metadata     map[string]string
}

// Stats aggregates counts over ingestion-complete items (non-null embedding).
type Stats struct {
	Total      int
	BySource   map[Source]int
	ByCategory map[Category]int
}
