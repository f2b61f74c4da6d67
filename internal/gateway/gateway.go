// Package gateway talks to external payment providers: it signs redirect
// URLs, verifies their callbacks and places synchronous charges and refunds.
package gateway

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

var (
	ErrBadSignature   = errors.New("signature mismatch")
	ErrMalformed      = errors.New("malformed callback")
	ErrUnknownOutcome = errors.New("payment outcome unknown")
)

// RawCallback is an untrusted notification as received over HTTP.
type RawCallback struct {
	Query  url.Values
	Body   []byte
	Header http.Header
	Source string
}

// Notification is a verified payment outcome.
type Notification struct {
	OrderCode     string
	Amount        int64
	Outcome       models.PaymentOutcome
	TransactionNo string
}

type Verifier interface {
	Verify(raw RawCallback) (*Notification, error)
}

type ChargeResult struct {
	TransactionNo string
	Approved      bool
}
