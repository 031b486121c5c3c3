package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/maison-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Source supplies the raw product and collection feeds.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListCollections(ctx context.Context) ([]Collection, error)
}

// Repository reads the active catalog from the relational store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListProducts returns active products, newest first.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("title ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

// ListCollections returns active collections by position, each with its ordered members.
func (r *Repository) ListCollections(ctx context.Context) ([]Collection, error) {
	var rows []models.Collection
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Collection{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var links []models.CollectionProduct
	if err := r.db.WithContext(ctx).
		Where("collection_id IN ?", ids).
		Order("position ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	members := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, link := range links {
		members[link.CollectionID] = append(members[link.CollectionID], link.ProductID)
	}

	out := make([]Collection, 0, len(rows))
	for _, row := range rows {
		c := collectionFromModel(row)
		if ids, ok := members[row.ID]; ok {
			c.ProductIDs = ids
		}
		out = append(out, c)
	}
	return out, nil
}

// FindProduct loads a single active product.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return productFromModel(row), nil
}

// UnitPrice returns the current price of an active product.
func (r *Repository) UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := r.FindProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.Price, nil
}

func productFromModel(m models.Product) Product {
	return Product{
		ID:          m.ID,
		Title:       m.Title,
		Description: deref(m.Description),
		Image:       deref(m.ImageURL),
		Price:       m.Price,
		Tags:        nonNil(m.Tags),
		Sizes:       nonNil(m.Sizes),
	}
}

func collectionFromModel(m models.Collection) Collection {
	return Collection{
		ID:          m.ID,
		Name:        m.Name,
		Description: deref(m.Description),
		Image:       deref(m.ImageURL),
		ProductIDs:  []uuid.UUID{},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
