package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"storefront/catalog/internal/domain"
)

type AttributeRepository interface {
	ListAttributes(ctx context.Context, activeOnly bool) ([]domain.Attribute, error)
	GetAttribute(ctx context.Context, id string) (*domain.Attribute, error)
	CreateAttribute(ctx context.Context, attribute *domain.Attribute) error
	UpdateAttribute(ctx context.Context, id string, update domain.AttributeUpdate) error
	DeleteAttribute(ctx context.Context, id string) error
}

type attributeRepository struct {
	db DB
}

func NewAttributeRepository(db DB) AttributeRepository {
	return &attributeRepository{
		db: db,
	}
}

const attributeColumns = `id, name, selection_type, is_hierarchical, is_active`

func (r *attributeRepository) ListAttributes(ctx context.Context, activeOnly bool) ([]domain.Attribute, error) {
	query := `SELECT ` + attributeColumns + ` FROM attributes`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	attributes := make([]domain.Attribute, 0)
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attributes = append(attributes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}

	return attributes, nil
}

func (r *attributeRepository) GetAttribute(ctx context.Context, id string) (*domain.Attribute, error) {
	a, err := scanAttribute(r.db.QueryRow(ctx, `SELECT `+attributeColumns+` FROM attributes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "attribute", id)
	}
	return &a, nil
}

func scanAttribute(row pgx.Row) (domain.Attribute, error) {
	var (
		a             domain.Attribute
		selectionType string
	)
	if err := row.Scan(&a.ID, &a.Name, &selectionType, &a.IsHierarchical, &a.IsActive); err != nil {
		return domain.Attribute{}, err
	}
	a.SelectionType = domain.SelectionType(selectionType)
	return a, nil
}

func (r *attributeRepository) CreateAttribute(ctx context.Context, a *domain.Attribute) error {
	query := `
	INSERT INTO attributes (id, name, selection_type, is_hierarchical, is_active)
	VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, a.ID, a.Name, a.SelectionType.String(), a.IsHierarchical, a.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}

	return nil
}

func (r *attributeRepository) UpdateAttribute(ctx context.Context, id string, update domain.AttributeUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.SelectionType != nil {
		add("selection_type", update.SelectionType.String())
	}
	if update.IsHierarchical != nil {
		add("is_hierarchical", *update.IsHierarchical)
	}
	if update.IsActive != nil {
		add("is_active", *update.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE attributes SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update attribute %s: %w", id, err)
	}

	return expectOne(tag, "attribute", id)
}

func (r *attributeRepository) DeleteAttribute(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attributes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attribute %s: %w", id, err)
	}

	return expectOne(tag, "attribute", id)
}
