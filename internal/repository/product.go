package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/domain"
)

// ProductRepository reads the products table the catalog service writes to.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// errMalformedProduct marks a row that scanned but holds values the read model cannot carry.
var errMalformedProduct = errors.New("malformed product")

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

const productColumns = `id, title, description, price::text, currency, stock, is_active, attributes`

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if errors.Is(err, errMalformedProduct) {
			log.Warnf("⚠️ Skipping product: %v", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p          domain.Product
		price      string
		attributes []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &price, &p.Currency, &p.Stock, &p.IsActive, &attributes); err != nil {
		return domain.Product{}, err
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: invalid price %q for product %s: %v", errMalformedProduct, price, p.ID, err)
	}
	p.Price = amount

	if len(attributes) > 0 {
		// TermAssignments drops non-string values.
		_ = json.Unmarshal(attributes, &p.Attributes)
	}
	return p, nil
}
