package newsletter

import (
	"context"
	"fmt"

	"github.com/angelmondragon/maison-storefront/pkg/config"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"gorm.io/gorm"
)

// Endpoint registers an email with the newsletter provider.
type Endpoint interface {
	Subscribe(ctx context.Context, email string) error
}

// RejectedError is a provider refusal whose Message is shown to the user as-is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// NewEndpoint selects the provider configured in cfg.
func NewEndpoint(cfg config.NewsletterConfig, db *gorm.DB, logg *logger.Logger) (Endpoint, error) {
	if cfg.UsesSendgrid() {
		return NewSendGridEndpoint(SendGridOptions{
			APIKey: cfg.SendgridAPIKey,
			ListID: cfg.SendgridListID,
			Host:   cfg.SendgridHost,
			Logger: logg,
		})
	}
	if db == nil {
		return nil, fmt.Errorf("database required for %s newsletter provider", config.NewsletterProviderDatabase)
	}
	return NewRepositoryEndpoint(db), nil
}
