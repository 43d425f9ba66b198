// Package apperr builds the go-errors envelopes returned across package
// boundaries. Each carries the HTTP status in Code and a stable TextCode.
package apperr

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextAuthMalformed    = "AUTH_MALFORMED"
	TextAuthMismatch     = "AUTH_MISMATCH"
	TextMalformedSlug    = "MALFORMED_SLUG"
	TextMalformedPayload = "MALFORMED_PAYLOAD"
	TextNotifyFailure    = "NOTIFY_FAILURE"
	TextStoreUnavailable = "STORE_UNAVAILABLE"
	TextNotFound         = "NOT_FOUND"
	TextBadInput         = "BAD_INPUT"
	TextInternal         = "INTERNAL"
)

func newError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(source error, category goerrors.Category, message string, code int, textCode string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return newError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// Forbidden rejects a webhook whose authentication headers are partial or wrong.
func Forbidden(message, textCode string) error {
	return newError(message, goerrors.CategoryAuthz, http.StatusForbidden, textCode, nil)
}

// BadInput rejects a malformed request.
func BadInput(message, textCode string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, textCode, metadata)
}

// NotFound reports an unknown owner or repository.
func NotFound(source error, message string) error {
	return wrapError(source, goerrors.CategoryNotFound, message, http.StatusNotFound, TextNotFound, nil)
}

// StoreUnavailable reports a persistence failure that survived retries.
func StoreUnavailable(source error, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryExternal, "history store unavailable", http.StatusServiceUnavailable, TextStoreUnavailable, metadata)
}

// NotifyFailure wraps a mail transport error. It is logged, never returned to clients.
func NotifyFailure(source error, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryExternal, "notification delivery failed", http.StatusBadGateway, TextNotifyFailure, metadata)
}

// Internal wraps an unexpected failure.
func Internal(source error, message string) error {
	return wrapError(source, goerrors.CategoryInternal, message, http.StatusInternalServerError, TextInternal, nil)
}

// Status extracts the HTTP status and text code carried by err. Errors that
// are not go-errors envelopes map to 500.
func Status(err error) (int, string) {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code, rich.TextCode
	}
	return http.StatusInternalServerError, TextInternal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return err.Error()
}

// Is reports whether err carries textCode.
func Is(err error, textCode string) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == textCode
}
