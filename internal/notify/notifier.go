// Package notify turns build notifications into status mail.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/logging"
	"github.com/onexay/travis-notify/internal/types"
)

const (
	RecipientsKey = "travis_notify.recipients"
	SenderKey     = "travis_notify.sender"

	DefaultSender = "travis_notify@localhost"

	buildTypePush = "push"
)

// Settings resolves mail settings by key.
type Settings interface {
	String(key string) (string, bool)
}

// Event carries one recorded notification to the notifier.
type Event struct {
	Owner    string
	Repo     string
	Payload  json.RawMessage
	Settings Settings
}

// Notifier formats and sends build status mail.
type Notifier struct {
	mailer Mailer
	logger logging.Logger
}

// NewNotifier returns a notifier delivering through mailer.
func NewNotifier(mailer Mailer, logger logging.Logger) *Notifier {
	return &Notifier{mailer: mailer, logger: logging.Ensure(logger)}
}

// Compose builds the message for ev. ok is false when the event does not
// warrant mail: pull request builds or no configured recipients.
func Compose(ev Event) (msg Message, ok bool, err error) {
	var payload types.BuildPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return Message{}, false, err
	}
	if payload.Type != buildTypePush {
		return Message{}, false, nil
	}

	to, err := Recipients(ev.Settings)
	if err != nil {
		return Message{}, false, err
	}
	if len(to) == 0 {
		return Message{}, false, nil
	}
	from := DefaultSender
	if configured, found := ev.Settings.String(SenderKey); found && strings.TrimSpace(configured) != "" {
		sender, err := mail.ParseAddress(configured)
		if err != nil {
			return Message{}, false, fmt.Errorf("parse %s: %w", SenderKey, err)
		}
		from = formatAddress(sender)
	}

	verdict := Classify(payload)
	body, err := Body(verdict, payload)
	if err != nil {
		return Message{}, false, err
	}

	return Message{
		From:    from,
		To:      to,
		Subject: Subject(verdict, payload.Repository.Name),
		Body:    body,
	}, true, nil
}

// Recipients parses the configured recipient list. Entries are separated by
// commas and may carry display names, e.g. "Zope Tests <zope-tests@zope.org>".
func Recipients(settings Settings) ([]string, error) {
	raw, _ := settings.String(RecipientsKey)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", RecipientsKey, err)
	}
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, formatAddress(addr))
	}
	return out, nil
}

// formatAddress keeps bare addresses bare and quotes display names as needed.
func formatAddress(addr *mail.Address) string {
	if addr.Name == "" {
		return addr.Address
	}
	return addr.String()
}

// Notify sends mail for ev. Errors are wrapped as NOTIFY_FAILURE; callers
// log them and carry on.
func (n *Notifier) Notify(ctx context.Context, ev Event) error {
	logger := n.logger.WithContext(ctx)
	meta := map[string]any{"owner": ev.Owner, "repo": ev.Repo}

	msg, ok, err := Compose(ev)
	if err != nil {
		return apperr.NotifyFailure(err, meta)
	}
	if !ok {
		if raw, _ := ev.Settings.String(RecipientsKey); strings.TrimSpace(raw) == "" {
			logger.Warn("no notification recipients configured", "owner", ev.Owner, "repo", ev.Repo, "key", RecipientsKey)
		} else {
			logger.Debug("notification skipped", "owner", ev.Owner, "repo", ev.Repo)
		}
		return nil
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		return apperr.NotifyFailure(err, meta)
	}
	logger.Info("notification sent", "owner", ev.Owner, "repo", ev.Repo, "subject", msg.Subject)
	return nil
}
