// Package newsletter runs the newsletter signup form: email validation, a
// single in-flight subscription call and the resulting form state.
package newsletter

import "github.com/angelmondragon/maison-storefront/pkg/enums"

// State is one of Idle, Submitting, Success or Failed.
type State interface {
	Status() enums.NewsletterStatus
	isState()
}

// Idle is the initial state.
type Idle struct{}

// Submitting means a subscription call for Email is in flight.
type Submitting struct {
	Email string
}

// Success is terminal for a flow.
type Success struct{}

// Failed carries the submitted email and a user-facing message.
type Failed struct {
	Email   string
	Message string
}

func (Idle) Status() enums.NewsletterStatus       { return enums.NewsletterStatusIdle }
func (Submitting) Status() enums.NewsletterStatus { return enums.NewsletterStatusSubmitting }
func (Success) Status() enums.NewsletterStatus    { return enums.NewsletterStatusSuccess }
func (Failed) Status() enums.NewsletterStatus     { return enums.NewsletterStatusError }

func (Idle) isState()       {}
func (Submitting) isState() {}
func (Success) isState()    {}
func (Failed) isState()     {}
