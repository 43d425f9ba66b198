package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onexay/travis-notify/internal/apperr"
)

type settings map[string]string

func (s settings) String(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

func newChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := NewChecker(settings{"my_token": "TOKEN"}, "my_token")
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return c
}

func TestNewCheckerDefaultKey(t *testing.T) {
	c, err := NewChecker(settings{DefaultTokenKey: "TOKEN"}, "")
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	if c.Key() != DefaultTokenKey || c.token != "TOKEN" {
		t.Fatalf("unexpected checker %+v", c)
	}
}

func TestNewCheckerExplicitKey(t *testing.T) {
	c := newChecker(t)
	if c.Key() != "my_token" || c.token != "TOKEN" {
		t.Fatalf("unexpected checker %+v", c)
	}
}

func TestNewCheckerMissingToken(t *testing.T) {
	if _, err := NewChecker(settings{}, ""); err == nil {
		t.Fatalf("expected error when token setting is absent")
	}
}

func TestMatchWithoutHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	ok, err := newChecker(t).Match(req)
	if err != nil || ok {
		t.Fatalf("expected not-applicable, got ok=%v err=%v", ok, err)
	}
}

func TestMatchWithoutAuthorization(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderRepoSlug, "owner/repo")
	_, err := newChecker(t).Match(req)
	if !apperr.Is(err, apperr.TextAuthMalformed) {
		t.Fatalf("expected malformed auth error, got %v", err)
	}
	if status, _ := apperr.Status(err); status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestMatchWithoutSlug(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderAuthorization, "DEADBEEF")
	_, err := newChecker(t).Match(req)
	if !apperr.Is(err, apperr.TextAuthMalformed) {
		t.Fatalf("expected malformed auth error, got %v", err)
	}
}

func TestMatchEmptyHeaderCountsAsPresent(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header[HeaderRepoSlug] = []string{""}
	_, err := newChecker(t).Match(req)
	if !apperr.Is(err, apperr.TextAuthMalformed) {
		t.Fatalf("expected malformed auth error, got %v", err)
	}
}

func TestMatchMismatchedDigest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderRepoSlug, "owner/repo")
	req.Header.Set(HeaderAuthorization, "DEADBEEF")
	_, err := newChecker(t).Match(req)
	if !apperr.Is(err, apperr.TextAuthMismatch) {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
	if status, _ := apperr.Status(err); status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestMatchMatchedDigest(t *testing.T) {
	sum := sha256.Sum256([]byte("owner/repo" + "TOKEN"))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderRepoSlug, "owner/repo")
	req.Header.Set(HeaderAuthorization, hex.EncodeToString(sum[:]))

	ok, err := newChecker(t).Match(req)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
}

func TestSignIsLowercaseHex(t *testing.T) {
	got := Sign("owner/repo", "TOKEN")
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
	for _, r := range got {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in %s", r, got)
		}
	}
}
