package newsletter

import (
	"context"
	"strings"

	"github.com/angelmondragon/maison-storefront/pkg/db"
	"github.com/angelmondragon/maison-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"gorm.io/gorm"
)

// AlreadySubscribedMessage is returned for an email that is already on the list.
const AlreadySubscribedMessage = "This email is already subscribed."

const subscriberSource = "storefront"

// RepositoryEndpoint stores subscribers in the newsletter_subscribers table.
type RepositoryEndpoint struct {
	db *gorm.DB
}

// NewRepositoryEndpoint builds an endpoint tied to the provided GORM DB.
func NewRepositoryEndpoint(db *gorm.DB) *RepositoryEndpoint {
	return &RepositoryEndpoint{db: db}
}

// Subscribe inserts email, lower-cased. A duplicate is rejected with
// AlreadySubscribedMessage.
func (r *RepositoryEndpoint) Subscribe(ctx context.Context, email string) error {
	subscriber := &models.NewsletterSubscriber{
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Source: subscriberSource,
	}
	if err := r.db.WithContext(ctx).Create(subscriber).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return &RejectedError{Message: AlreadySubscribedMessage}
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert newsletter subscriber")
	}
	return nil
}
