package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/maison-storefront/api/middleware"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
)

// Sessions hands out the storefront session bound to a request.
type Sessions interface {
	Get(ctx context.Context, id string) (*storefront.Session, error)
}

func sessionFor(r *http.Request, sessions Sessions) (*storefront.Session, error) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	sess, err := sessions.Get(r.Context(), id)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open session")
	}
	return sess, nil
}
