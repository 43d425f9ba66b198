// Package auth verifies Travis-CI webhook notifications.
//
// Travis signs each notification by sending, in the Authorization header,
// the hex SHA-256 digest of the repository slug concatenated with the
// account's secret token. See
// https://docs.travis-ci.com/user/notifications/#authorization-for-webhooks
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/onexay/travis-notify/internal/apperr"
)

const (
	// DefaultTokenKey names the settings entry holding the shared token.
	DefaultTokenKey = "travis_notify.token"

	HeaderRepoSlug      = "Travis-Repo-Slug"
	HeaderAuthorization = "Authorization"
)

// SettingsLookup resolves string settings by key.
type SettingsLookup interface {
	String(key string) (string, bool)
}

// Checker decides whether a request is an authentic Travis notification.
type Checker struct {
	key   string
	token string
}

// NewChecker resolves the shared token from settings under key, or under
// DefaultTokenKey when key is empty.
func NewChecker(settings SettingsLookup, key string) (*Checker, error) {
	if strings.TrimSpace(key) == "" {
		key = DefaultTokenKey
	}
	token, ok := settings.String(key)
	if !ok {
		return nil, fmt.Errorf("auth: setting %q is required", key)
	}
	return &Checker{key: key, token: token}, nil
}

// Key reports the settings key the token was read from.
func (c *Checker) Key() string { return c.key }

// Check evaluates the two header values.
//
// Both absent returns false: the request is not a Travis notification.
// One absent, or a digest that does not match, returns a Forbidden error.
func (c *Checker) Check(slug string, hasSlug bool, digest string, hasDigest bool) (bool, error) {
	if !hasSlug && !hasDigest {
		return false, nil
	}
	if !hasSlug || !hasDigest {
		return false, apperr.Forbidden("travis headers must be sent together", apperr.TextAuthMalformed)
	}

	expected := Sign(slug, c.token)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(expected)) != 1 {
		return false, apperr.Forbidden("travis authorization digest mismatch", apperr.TextAuthMismatch)
	}
	return true, nil
}

// Match reads the Travis headers from r. It never touches the body.
func (c *Checker) Match(r *http.Request) (bool, error) {
	slug, hasSlug := header(r.Header, HeaderRepoSlug)
	digest, hasDigest := header(r.Header, HeaderAuthorization)
	return c.Check(slug, hasSlug, digest, hasDigest)
}

// Sign returns the digest Travis sends for slug under token.
func Sign(slug, token string) string {
	sum := sha256.Sum256([]byte(slug + token))
	return hex.EncodeToString(sum[:])
}

// header distinguishes a missing header from an empty one.
func header(h http.Header, name string) (string, bool) {
	values, ok := h[textproto.CanonicalMIMEHeaderKey(name)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
