package service

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/onexay/travis-notify/internal/apperr"
	"github.com/onexay/travis-notify/internal/auth"
	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/logging"
	"github.com/onexay/travis-notify/internal/notify"
	"github.com/onexay/travis-notify/internal/storage"
)

// Notifier delivers status mail for a recorded notification.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// Service holds business logic and storage dependencies.
type Service struct {
	store    storage.Store
	checker  *auth.Checker
	notifier Notifier
	settings notify.Settings
	logger   logging.Logger
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store    storage.Store
	Checker  *auth.Checker
	Notifier Notifier
	Settings notify.Settings
	Logger   logging.Logger
}

// New constructs the service wiring from configuration.
func New(ctx context.Context, cfg config.Config, logger logging.Logger) (*Service, error) {
	logger = logging.Ensure(logger)

	checker, err := auth.NewChecker(cfg.Settings, cfg.Auth.TokenKeyOrDefault())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "webhook token is not configured")
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "open history store")
	}

	var mailer notify.Mailer
	if cfg.Mail.SMTPAddr != "" {
		mailer = &notify.SMTPMailer{
			Addr:     cfg.Mail.SMTPAddr,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
		}
	} else {
		mailer = &notify.LogMailer{Logger: logger}
	}

	logger.WithContext(ctx).Info("service configured",
		"backend", string(cfg.Storage.Backend),
		"recent_limit", cfg.History.RecentLimitOrDefault(),
		"token_key", checker.Key(),
		"smtp", cfg.Mail.SMTPAddr != "",
	)

	return NewWithDeps(Deps{
		Store:    store,
		Checker:  checker,
		Notifier: notify.NewNotifier(mailer, logger),
		Settings: cfg.Settings,
		Logger:   logger,
	}), nil
}

// NewWithDeps assembles a Service from ready collaborators.
func NewWithDeps(deps Deps) *Service {
	logger := logging.Ensure(deps.Logger)
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewNotifier(&notify.LogMailer{Logger: logger}, logger)
	}
	settings := deps.Settings
	if settings == nil {
		settings = config.Settings{}
	}
	return &Service{
		store:    deps.Store,
		checker:  deps.Checker,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// Close releases the store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Handler builds the routing table for the service.
func Handler(svc *Service) http.Handler {
	rt := &router{
		onError: svc.writeError,
		notFound: func(w http.ResponseWriter, r *http.Request) {
			svc.writeError(w, r, apperr.NotFound(nil, "unknown endpoint"))
		},
	}

	// Travis notifications are only routed when both headers are present
	// and the digest matches.
	var webhookGuard Guard
	if svc.checker != nil {
		webhookGuard = svc.checker.Match
	} else {
		webhookGuard = func(*http.Request) (bool, error) { return false, nil }
	}
	rt.handle(http.MethodPost, "/", webhookGuard, svc.handleWebhook)
	rt.handle(http.MethodPost, "/webhook", webhookGuard, svc.handleWebhook)

	rt.handle(http.MethodGet, "/api/v1/owners", nil, svc.handleListOwners)
	rt.handle(http.MethodGet, "/api/v1/owners/{owner}", nil, svc.handleOwner)
	rt.handle(http.MethodGet, "/api/v1/owners/{owner}/repos/{repo}", nil, svc.handleRepo)
	rt.handle(http.MethodGet, "/api/v1/owners/{owner}/repos/{repo}/history", nil, svc.handleHistory)
	rt.handle(http.MethodGet, "/api/v1/owners/{owner}/repos/{repo}/diff", nil, svc.handleDiff)

	rt.handle(http.MethodGet, "/swagger", nil, svc.handleSwagger)
	rt.handle(http.MethodGet, "/swagger/", nil, svc.handleSwagger)
	rt.handle(http.MethodGet, "/swagger/{file}", nil, svc.handleSwagger)

	return rt
}

// splitSlug splits "owner/repo". Exactly one separator with non-empty halves.
func splitSlug(slug string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(slug, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", apperr.BadInput("repository slug must be owner/repo", apperr.TextMalformedSlug, map[string]any{"slug": slug})
	}
	return owner, repo, nil
}
