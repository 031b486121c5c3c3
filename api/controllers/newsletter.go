package controllers

import (
	"net/http"

	"github.com/angelmondragon/maison-storefront/api/responses"
	"github.com/angelmondragon/maison-storefront/api/validators"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
)

type subscribeRequest struct {
	Email string `json:"email" validate:"max=254"`
}

func NewsletterFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newsletterResponse(sess.Newsletter.State()))
	}
}

// NewsletterSubscribe submits the form and waits for the outcome. A refused
// or failed signup is a form state, not an HTTP error.
func NewsletterSubscribe(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req subscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		state := sess.SubscribeNewsletter(ctx, req.Email)
		responses.WriteSuccess(w, newsletterResponse(state))
	}
}
