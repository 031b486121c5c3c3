package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	ImageURL    *string         `gorm:"column:image_url"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Tags        []string        `gorm:"column:tags;type:text;serializer:json;not null"`
	Sizes       []string        `gorm:"column:sizes;type:text;serializer:json;not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// BeforeCreate assigns an id so inserts work on dialects without gen_random_uuid().
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	return nil
}
