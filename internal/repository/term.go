package repository

import (
	"context"
	"fmt"

	"storefront/catalog/internal/domain"
)

type TermRepository interface {
	ListTerms(ctx context.Context, attributeID string) ([]domain.Term, error)
	ListTermsByAttributes(ctx context.Context, attributeIDs []string) (map[string][]domain.Term, error)
	GetTerm(ctx context.Context, id string) (*domain.Term, error)
	CreateTerm(ctx context.Context, term *domain.Term) error
	RenameTerm(ctx context.Context, id, name string) error
	DeleteTerm(ctx context.Context, id string) error
}

type termRepository struct {
	db DB
}

func NewTermRepository(db DB) TermRepository {
	return &termRepository{
		db: db,
	}
}

const termColumns = `id, attribute_id, name, parent_id, path`

func (r *termRepository) ListTerms(ctx context.Context, attributeID string) ([]domain.Term, error) {
	terms, err := r.queryTerms(ctx,
		`SELECT `+termColumns+` FROM terms WHERE attribute_id = $1 ORDER BY name ASC, id ASC`, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms for attribute %s: %w", attributeID, err)
	}
	return terms, nil
}

// ListTermsByAttributes loads the terms of several attributes in one round trip.
// Every requested attribute has an entry, empty when it has no terms.
func (r *termRepository) ListTermsByAttributes(ctx context.Context, attributeIDs []string) (map[string][]domain.Term, error) {
	out := make(map[string][]domain.Term, len(attributeIDs))
	for _, id := range attributeIDs {
		out[id] = []domain.Term{}
	}
	if len(attributeIDs) == 0 {
		return out, nil
	}

	terms, err := r.queryTerms(ctx,
		`SELECT `+termColumns+` FROM terms WHERE attribute_id = ANY($1) ORDER BY name ASC, id ASC`, attributeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	for _, t := range terms {
		out[t.AttributeID] = append(out[t.AttributeID], t)
	}
	return out, nil
}

func (r *termRepository) queryTerms(ctx context.Context, query string, args ...any) ([]domain.Term, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make([]domain.Term, 0)
	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.ID, &t.AttributeID, &t.Name, &t.ParentID, &t.Path); err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		if t.Path == nil {
			t.Path = []string{}
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *termRepository) GetTerm(ctx context.Context, id string) (*domain.Term, error) {
	var t domain.Term
	err := r.db.QueryRow(ctx, `SELECT `+termColumns+` FROM terms WHERE id = $1`, id).
		Scan(&t.ID, &t.AttributeID, &t.Name, &t.ParentID, &t.Path)
	if err != nil {
		return nil, notFound(err, "term", id)
	}
	if t.Path == nil {
		t.Path = []string{}
	}
	return &t, nil
}

func (r *termRepository) CreateTerm(ctx context.Context, t *domain.Term) error {
	path := t.Path
	if path == nil {
		path = []string{}
	}

	query := `
	INSERT INTO terms (id, attribute_id, name, parent_id, path)
	VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, t.ID, t.AttributeID, t.Name, t.ParentID, path)
	if err != nil {
		return fmt.Errorf("failed to create term: %w", err)
	}

	return nil
}

func (r *termRepository) RenameTerm(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE terms SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename term %s: %w", id, err)
	}

	return expectOne(tag, "term", id)
}

// DeleteTerm removes only the term row. Children and product assignments are left dangling.
func (r *termRepository) DeleteTerm(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM terms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete term %s: %w", id, err)
	}

	return expectOne(tag, "term", id)
}
