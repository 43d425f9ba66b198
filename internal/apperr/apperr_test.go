package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestStatusCarriesCodeAndTextCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Forbidden("nope", TextAuthMismatch), http.StatusForbidden, TextAuthMismatch},
		{BadInput("bad slug", TextMalformedSlug, map[string]any{"slug": "x"}), http.StatusBadRequest, TextMalformedSlug},
		{NotFound(nil, "missing"), http.StatusNotFound, TextNotFound},
		{StoreUnavailable(errors.New("down"), nil), http.StatusServiceUnavailable, TextStoreUnavailable},
		{NotifyFailure(errors.New("relay"), nil), http.StatusBadGateway, TextNotifyFailure},
		{Internal(errors.New("boom"), "unexpected"), http.StatusInternalServerError, TextInternal},
		{errors.New("plain"), http.StatusInternalServerError, TextInternal},
	}
	for _, tc := range cases {
		status, code := Status(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("Status(%v) = %d %q, want %d %q", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestStatusSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", BadInput("bad payload", TextMalformedPayload, nil))
	if status, code := Status(err); status != http.StatusBadRequest || code != TextMalformedPayload {
		t.Fatalf("unexpected %d %q", status, code)
	}
	if !Is(err, TextMalformedPayload) {
		t.Fatalf("expected Is to match wrapped text code")
	}
	if Is(err, TextMalformedSlug) {
		t.Fatalf("unexpected match")
	}
}

func TestCategories(t *testing.T) {
	var rich *goerrors.Error
	if !goerrors.As(Forbidden("nope", TextAuthMalformed), &rich) || rich.Category != goerrors.CategoryAuthz {
		t.Fatalf("forbidden should be an authz error")
	}
	if !goerrors.As(StoreUnavailable(errors.New("down"), nil), &rich) || rich.Category != goerrors.CategoryExternal {
		t.Fatalf("store unavailable should be an external error")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(BadInput("bad slug", TextMalformedSlug, nil)); got != "bad slug" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}
