package coord

import (
	"context"
	"errors"
	"net/http"

	"github.com/abelbrown/catalog/internal/search"
)

// Class is the failure taxonomy the view reacts to.
type Class int

const (
	ClassNone Class = iota
	// Cancelled requests were superseded or torn down; never shown.
	Cancelled
	// RateLimited is HTTP 429; shown as an empty result.
	RateLimited
	// ClientRejected is any other 4xx; shown as an empty result.
	ClientRejected
	// ServiceUnavailable covers 5xx, transport failures, and malformed
	// bodies. The only class surfaced to the user, with a retry.
	ServiceUnavailable
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "ok"
	case Cancelled:
		return "cancelled"
	case RateLimited:
		return "rate_limited"
	case ClientRejected:
		return "client_rejected"
	case ServiceUnavailable:
		return "service_unavailable"
	}
	return "unknown"
}

// Retryable reports whether the view should offer a retry.
func (c Class) Retryable() bool { return c == ServiceUnavailable }

// Classify maps a search error onto a Class.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, context.Canceled) {
		return Cancelled
	}

	var se *search.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			return RateLimited
		case se.Code >= 400 && se.Code < 500:
			return ClientRejected
		}
	}
	return ServiceUnavailable
}
