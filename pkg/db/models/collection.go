package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection is a curated, ordered group of products shown in the carousel.
type Collection struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	ImageURL    *string   `gorm:"column:image_url"`
	Position    int       `gorm:"column:position;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Collection) TableName() string { return "collections" }

func (c *Collection) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CollectionProduct links a product into a collection at a position.
type CollectionProduct struct {
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey;index:collection_products_product_id_idx"`
	Position     int       `gorm:"column:position;not null;default:0"`
}

func (CollectionProduct) TableName() string { return "collection_products" }
