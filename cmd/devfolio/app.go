package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/devfolio/internal/config"
	"github.com/kalambet/devfolio/internal/profile"
	"github.com/kalambet/devfolio/internal/profileview"
	"github.com/kalambet/devfolio/internal/projects"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

// app bundles what most commands need: config, the local store and the
// session built from it.
type app struct {
	cfg      config.Config
	store    *storage.Store
	profiles *profile.Manager
	session  session.Session
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	profiles := profile.NewManager(store)

	sess, err := session.Load(profiles, cfg.Session.Token)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, store: store, profiles: profiles, session: sess}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing storage", "error", err)
	}
}

// newView builds a profile view against the configured backend.
func (a *app) newView(nav profileview.Navigator, notifier profileview.Notifier) (*profileview.View, error) {
	if err := a.cfg.RequireBackend(); err != nil {
		return nil, err
	}
	timeout, err := a.cfg.BackendTimeout()
	if err != nil {
		return nil, err
	}
	return profileview.New(profileview.Options{
		Fetcher:          projects.New(a.cfg.Backend.BaseURL, timeout),
		Session:          a.session,
		Navigator:        nav,
		Notifier:         notifier,
		Recorder:         &historyRecorder{store: a.store},
		TagLimit:         a.cfg.View.TagLimit,
		DescriptionLimit: a.cfg.View.DescriptionLimit,
		Logger:           slog.Default(),
	}), nil
}

// FetchLog is the subset of the store the history recorder writes to.
type FetchLog interface {
	SaveFetch(storage.FetchRecord) error
}

// historyRecorder persists every resolved fetch to the fetch log.
type historyRecorder struct {
	store FetchLog
}

func (h *historyRecorder) Record(o profileview.Outcome) {
	rec := storage.FetchRecord{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now().UTC(),
		Subject:           o.Subject,
		Generation:        o.Generation,
		Outcome:           o.Result,
		Message:           o.Message,
		OwnedCount:        o.OwnedCount,
		CollaboratedCount: o.CollaboratedCount,
	}
	if err := h.store.SaveFetch(rec); err != nil {
		slog.Warn("recording fetch", "subject", o.Subject, "error", err)
	}
}

// linkPrinter turns navigation intents into printed links.
type linkPrinter struct {
	webURL string
	w      io.Writer
}

func (l linkPrinter) Navigate(intent profileview.NavigationIntent) {
	fmt.Fprintln(l.w, projectLink(l.webURL, intent))
}

// projectLink is the absolute URL of a project when a web URL is
// configured, else its route path.
func projectLink(webURL string, intent profileview.NavigationIntent) string {
	if webURL == "" {
		return intent.Path
	}
	return strings.TrimRight(webURL, "/") + intent.Path
}

// stderrNotifier prints failure notices.
type stderrNotifier struct{}

func (stderrNotifier) Notify(n profileview.Notice) {
	printError("%s", n.Message)
}
