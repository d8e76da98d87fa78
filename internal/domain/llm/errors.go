package llm

import (
	"errors"
	"fmt"
)

// NoResponsePlaceholder replaces a completion that a vendor returned without text.
const NoResponsePlaceholder = "No response generated"

var (
	ErrEmptyHistory      = errors.New("message history is required")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrMissingCredential = errors.New("API key not configured")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindUnsupportedModel  ErrorKind = "unsupported_model"
	KindMissingCredential ErrorKind = "missing_credential"
	KindProviderError     ErrorKind = "provider_error"
	KindMalformedResponse ErrorKind = "malformed_provider_response"
	KindTransport         ErrorKind = "transport_error"
)

// ProviderError is a non-success response from a vendor.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.Status, e.Message)
}

// MissingCredentialError reports the vendor whose key is absent.
func MissingCredentialError(provider string) error {
	return fmt.Errorf("%s %w", provider, ErrMissingCredential)
}

// GatewayError is the single error type returned by Gateway.Generate.
type GatewayError struct {
	Kind    ErrorKind
	Model   string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AsGatewayError returns the GatewayError in err's chain, if any.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// Classify maps an adapter error onto the gateway taxonomy.
func Classify(err error) ErrorKind {
	var providerErr *ProviderError
	switch {
	case errors.As(err, &providerErr):
		return KindProviderError
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrEmptyHistory), errors.Is(err, ErrInvalidRole):
		return KindInvalidRequest
	default:
		return KindTransport
	}
}
