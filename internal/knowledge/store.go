package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

const (
	// searchTimeout bounds vector search queries so a cold index cannot
	// block a request indefinitely.
	searchTimeout = 10 * time.Second

	// DefaultPageSize is used when List is called without a page size.
	DefaultPageSize = 20

	// MaxPageSize caps List page sizes. Part of the contract, not a hint.
	MaxPageSize = 100
)

// DB is the database dependency of Store. *pgxpool.Pool satisfies it;
// tests substitute a fake.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists knowledge items and ranks them by vector similarity using
// PostgreSQL + pgvector. Embeddings are supplied by the caller; the store
// never computes them.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a Store on top of an existing connection pool.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Search delegates to the match_knowledge server-side ranking function.
// Rows below the threshold are excluded server-side, the result is limited to
// p.Count and sorted by similarity descending (id breaks ties). Optional
// exact-match filters apply to source and category.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, p SearchParams) ([]Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrSearch)
	}
	if p.Count <= 0 {
		return nil, fmt.Errorf("%w: match count must be positive, got %d", ErrSearch, p.Count)
	}
	if p.Source != "" && !p.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source filter %q", ErrSearch, p.Source)
	}
	if p.Category != "" && !p.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category filter %q", ErrSearch, p.Category)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var filterSource, filterCategory *string
	if p.Source != "" {
		v := string(p.Source)
		filterSource = &v
	}
	if p.Category != "" {
		v := string(p.Category)
		filterCategory = &v
	}

	rows, err := s.db.Query(queryCtx,
		`SELECT id, title, content, source, category, document_type, file_url,
		        metadata, created_by, created_at, updated_at, similarity
		   FROM match_knowledge($1, $2, $3, $4, $5)`,
		pgvector.NewVector(queryEmbedding), p.Threshold, p.Count, filterSource, filterCategory)
	if err != nil {
		if ctxErr := queryCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrSearch, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			item         Item
			metadataJSON []byte
			fileURL      pgtype.Text
			similarity   float64
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.Source,
			&item.Category, &item.DocumentType, &fileURL, &metadataJSON,
			&item.CreatedBy, &item.CreatedAt, &item.UpdatedAt, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", ErrSearch, err)
		}
		item.FileURL = fileURL.String
		item.Metadata = s.parseMetadata(item.ID, metadataJSON)
		results = append(results, Result{Item: item, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}

	s.logger.Debug("ranked search completed",
		"results", len(results), "threshold", p.Threshold, "count", p.Count)
	return results, nil
}

// Add stores a new item and returns its assigned id.
// Rejects items with empty content or embedding, or unknown tags.
func (s *Store) Add(ctx context.Context, item Item) (uuid.UUID, error) {
	if strings.TrimSpace(item.Content) == "" {
		return uuid.Nil, fmt.Errorf("%w: content is empty", ErrInvalidItem)
	}
	if len(item.Embedding) == 0 {
		return uuid.Nil, fmt.Errorf("%w: embedding is missing", ErrInvalidItem)
	}
	if !item.Source.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown source %q", ErrInvalidItem, item.Source)
	}
	if !item.Category.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown category %q", ErrInvalidItem, item.Category)
	}

	metadataJSON, err := json.Marshal(metadataOrEmpty(item.Metadata))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: marshaling metadata: %w", ErrInvalidItem, err)
	}

	id := uuid.New()
	documentType := item.DocumentType
	if documentType == "" {
		documentType = "text"
	}
	fileURL := pgtype.Text{String: item.FileURL, Valid: item.FileURL != ""}

	_, err = s.db.Exec(ctx,
		`INSERT INTO knowledge_items
		    (id, title, content, source, category, document_type, file_url,
		     embedding, metadata, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`,
		id, item.Title, item.Content, string(item.Source), string(item.Category),
		documentType, fileURL, pgvector.NewVector(item.Embedding), metadataJSON,
		item.CreatedBy)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding knowledge item: %w", err)
	}

	s.logger.Debug("added knowledge item",
		"id", id, "source", item.Source, "category", item.Category,
		"content_length", len(item.Content))
	return id, nil
}

// Get fetches a single item by id. Fails with ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, title, content, source, category, document_type, file_url,
		        embedding, metadata, created_by, created_at, updated_at
		   FROM knowledge_items WHERE id = $1`, id)

	var (
		item         Item
		fileURL      pgtype.Text
		emb          *pgvector.Vector
		metadataJSON []byte
	)
	err := row.Scan(&item.ID, &item.Title, &item.Content, &item.Source,
		&item.Category, &item.DocumentType, &fileURL, &emb, &metadataJSON,
		&item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, fmt.Errorf("getting knowledge item %s: %w", id, err)
	}

	item.FileURL = fileURL.String
	if emb != nil {
		item.Embedding = emb.Slice()
	}
	item.Metadata = s.parseMetadata(item.ID, metadataJSON)
	return item, nil
}

// Update merges only the supplied patch fields into the stored item and always
// refreshes updated_at, even for an empty patch. Fails with ErrNotFound if the
// id does not exist.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return fmt.Errorf("%w: content is empty", ErrInvalidItem)
	}
	if patch.Source != nil && !patch.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidItem, *patch.Source)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, *patch.Category)
	}

	set := []string{"updated_at = now()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Source != nil {
		add("source", string(*patch.Source))
	}
	if patch.Category != nil {
		add("category", string(*patch.Category))
	}
	if patch.DocumentType != nil {
		add("document_type", *patch.DocumentType)
	}
	if patch.FileURL != nil {
		add("file_url", pgtype.Text{String: *patch.FileURL, Valid: *patch.FileURL != ""})
	}
	if len(patch.Embedding) > 0 {
		add("embedding", pgvector.NewVector(patch.Embedding))
	}
	if patch.Metadata != nil {
		metadataJSON, err := json.Marshal(patch.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshaling metadata: %w", ErrInvalidItem, err)
		}
		add("metadata", metadataJSON)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE knowledge_items SET %s WHERE id = $%d",
		strings.Join(set, ", "), len(args))

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating knowledge item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.logger.Debug("updated knowledge item", "id", id, "fields", len(set)-1)
	return nil
}

// Delete removes an item by id. Deletion is idempotent: deleting an absent id
// is a no-op. Callers needing existence confirmation must Get beforehand.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM knowledge_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting knowledge item %s: %w", id, err)
	}

	s.logger.Debug("deleted knowledge item", "id", id, "existed", tag.RowsAffected() > 0)
	return nil
}

// List returns one page of items ordered by creation time descending, with id
// as a tie-break for stable pagination. page starts at 1. pageSize defaults to
// DefaultPageSize and is capped at MaxPageSize.
func (s *Store) List(ctx context.Context, page, pageSize int, filters ListFilters) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return Page{}, fmt.Errorf("page size %d exceeds maximum %d", pageSize, MaxPageSize)
	}
	if filters.Source != "" && !filters.Source.Valid() {
		return Page{}, fmt.Errorf("%w: unknown source filter %q", ErrInvalidItem, filters.Source)
	}
	if filters.Category != "" && !filters.Category.Valid() {
		return Page{}, fmt.Errorf("%w: unknown category filter %q", ErrInvalidItem, filters.Category)
	}

	where, args := buildListFilter(filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM knowledge_items" + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("counting knowledge items: %w", err)
	}

	offset := (page - 1) * pageSize
	listArgs := append(args, pageSize, offset)
	listQuery := fmt.Sprintf(
		`SELECT id, title, content, source, category, document_type, file_url,
		        metadata, created_by, created_at, updated_at
		   FROM knowledge_items%s
		  ORDER BY created_at DESC, id ASC
		  LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return Page{}, fmt.Errorf("listing knowledge items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, pageSize)
	for rows.Next() {
		var (
			item         Item
			fileURL      pgtype.Text
			metadataJSON []byte
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.Source,
			&item.Category, &item.DocumentType, &fileURL, &metadataJSON,
			&item.CreatedBy, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return Page{}, fmt.Errorf("scanning knowledge item: %w", err)
		}
		item.FileURL = fileURL.String
		item.Metadata = s.parseMetadata(item.ID, metadataJSON)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("listing knowledge items: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return Page{Items: items, TotalCount: total, TotalPages: totalPages}, nil
}

// Stats aggregates counts by source and category, considering only items with
// a non-null embedding (ingestion-complete items).
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		BySource:   make(map[Source]int),
		ByCategory: make(map[Category]int),
	}

	rows, err := s.db.Query(ctx,
		`SELECT source, COUNT(*) FROM knowledge_items
		  WHERE embedding IS NOT NULL GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			source Source
			count  int
		)
		if err := rows.Scan(&source, &count); err != nil {
			return Stats{}, fmt.Errorf("scanning source count: %w", err)
		}
		stats.BySource[source] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("aggregating by source: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT category, COUNT(*) FROM knowledge_items
		  WHERE embedding IS NOT NULL GROUP BY category`)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category Category
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("scanning category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("aggregating by category: %w", err)
	}

	return stats, nil
}

// buildListFilter renders the WHERE clause for List and its arguments.
func buildListFilter(filters ListFilters) (string, []any) {
	var clauses []string
	var args []any
	if filters.Source != "" {
		args = append(args, string(filters.Source))
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}
	if filters.Category != "" {
		args = append(args, string(filters.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// parseMetadata decodes the metadata column, degrading to an empty map on
// malformed JSON rather than failing the whole query.
func (s *Store) parseMetadata(id uuid.UUID, raw []byte) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		s.logger.Warn("failed to parse item metadata", "id", id, "error", err)
		return map[string]string{}
	}
	return metadata
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
