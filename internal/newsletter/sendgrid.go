package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
)

const sendgridContactsPath = "/v3/marketing/contacts"

// SendGridOptions configures the SendGrid Marketing Contacts endpoint.
type SendGridOptions struct {
	APIKey string
	ListID string
	Host   string
	Logger *logger.Logger
}

// SendGridEndpoint upserts subscribers as SendGrid marketing contacts.
type SendGridEndpoint struct {
	apiKey string
	listID string
	host   string
	logg   *logger.Logger
}

// NewSendGridEndpoint validates the API key and applies defaults.
func NewSendGridEndpoint(opts SendGridOptions) (*SendGridEndpoint, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	if opts.Host == "" {
		opts.Host = "https://api.sendgrid.com"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &SendGridEndpoint{
		apiKey: opts.APIKey,
		listID: strings.TrimSpace(opts.ListID),
		host:   strings.TrimRight(opts.Host, "/"),
		logg:   opts.Logger,
	}, nil
}

type sendgridContact struct {
	Email string `json:"email"`
}

type sendgridUpsertRequest struct {
	ListIDs  []string          `json:"list_ids,omitempty"`
	Contacts []sendgridContact `json:"contacts"`
}

type sendgridErrorResponse struct {
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Subscribe upserts email. A 4xx response is a RejectedError carrying the
// provider's first error message; transport failures and 5xx are network errors.
func (s *SendGridEndpoint) Subscribe(ctx context.Context, email string) error {
	payload := sendgridUpsertRequest{Contacts: []sendgridContact{{Email: email}}}
	if s.listID != "" {
		payload.ListIDs = []string{s.listID}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode sendgrid request")
	}

	request := sendgrid.GetRequest(s.apiKey, sendgridContactsPath, s.host)
	request.Method = rest.Put
	request.Body = body

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "sendgrid request failed")
	}

	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		s.logg.Warn(s.logg.WithField(ctx, "status", response.StatusCode), "sendgrid upstream error")
		return pkgerrors.New(pkgerrors.CodeNetwork, fmt.Sprintf("sendgrid status %d", response.StatusCode))
	case response.StatusCode >= http.StatusBadRequest:
		return &RejectedError{Message: rejectionMessage(response.Body)}
	}
	s.logg.Info(s.logg.WithField(ctx, "status", response.StatusCode), "sendgrid contact upserted")
	return nil
}

func rejectionMessage(body string) string {
	var parsed sendgridErrorResponse
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		for _, e := range parsed.Errors {
			if msg := strings.TrimSpace(e.Message); msg != "" {
				return msg
			}
		}
	}
	return GenericFailureMessage
}
