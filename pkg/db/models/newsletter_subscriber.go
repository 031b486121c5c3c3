package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsletterSubscriber records an email captured by the newsletter form.
type NewsletterSubscriber struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:newsletter_subscribers_email_key"`
	Source    string    `gorm:"column:source;not null;default:'storefront'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }

func (s *NewsletterSubscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
