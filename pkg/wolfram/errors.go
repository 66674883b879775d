package wolfram

import (
	"errors"
	"fmt"

	"github.com/u296/wolframalpha-api/pkg/wolfram/raw"
)

// Request-level errors.
var (
	ErrEmptyQuestion   = errors.New("wolfram: question is empty")
	ErrInvalidQuestion = errors.New("wolfram: question could not be interpreted")
	ErrMissingAppID    = errors.New("wolfram: app id is required")
)

// SchemaViolation means the document did not match the accepted grammar at Path.
// It signals upstream drift, not a problem with one particular query.
type SchemaViolation = raw.SchemaViolation

// UpstreamError is the structured error the service embeds in an otherwise valid document,
// for example an invalid app id.
type UpstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("wolfram: upstream error %s: %s", e.Code, e.Message)
}

// TransportError wraps a failure of the HTTP exchange itself.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("wolfram: request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsSchemaViolation reports whether err means the integration no longer matches upstream.
func IsSchemaViolation(err error) bool {
	var sv *SchemaViolation
	return errors.As(err, &sv)
}

// IsUpstreamError reports whether err is an application error returned by the service.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsTransportError reports whether err came from the network exchange.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
