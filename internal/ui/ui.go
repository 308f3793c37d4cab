package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/session"
	"github.com/zalando/go-keyring"
)

// RepositoryFactory builds the backend repository for a base URL and token.
type RepositoryFactory func(baseURL, token string) session.Repository

// SaturdaysApp encapsulates the UI state, preferences and the scheduler session.
type SaturdaysApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Settings      *config.Settings
	Clock         engine.Clock // Injected clock for testability
	NewRepository RepositoryFactory
	Session       *session.Session

	// runAsync launches blocking network work off the UI goroutine.
	runAsync func(func())

	SupportedLanguages []string

	// Scheduler widgets
	rows        []*monthRow
	introLabel  *widget.Label
	statusLabel *widget.Label
	btnRefresh  *widget.Button
	btnSave     *widget.Button
	btnSettings *widget.Button
	updating    bool // set while checks are re-synced from state

	settingsWindow fyne.Window
}

// NewSaturdaysApp constructs the application and wires dependencies.
func NewSaturdaysApp(a fyne.App, ctx context.Context, settings *config.Settings) *SaturdaysApp {
	a.SetIcon(theme.CalendarIcon())
	if settings == nil {
		settings = &config.Settings{Language: config.DefaultLanguage}
	}

	return &SaturdaysApp{
		App:         a,
		Preferences: a.Preferences(),
		Ctx:         ctx,
		Settings:    settings,
		Clock:       engine.RealClock{},
		NewRepository: func(baseURL, token string) session.Repository {
			return engine.NewClient(baseURL, token)
		},
		SupportedLanguages: config.SupportedLanguages,
		runAsync:           func(f func()) { go f() },
	}
}

// Run launches the scheduler window, triggers the initial load and blocks in the UI loop.
func (app *SaturdaysApp) Run() {
	app.SetupI18n()
	app.ConnectSession()
	app.ShowScheduler()

	app.runAsync(app.refresh)

	go func() {
		<-app.Ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompUI)
		fyne.Do(app.App.Quit)
	}()

	app.App.Run()
}

// apiURL returns the configured backend URL, preferences first.
func (app *SaturdaysApp) apiURL() string {
	return app.Preferences.StringWithFallback(config.PrefAPIURL, app.Settings.APIURL)
}

// apiToken reads the token from the OS keyring, falling back to the environment.
func (app *SaturdaysApp) apiToken() string {
	token, err := keyring.Get(config.KeyringService, config.KeyringAccount)
	if err == nil && token != "" {
		return token
	}
	slog.Debug(config.MsgTokenMissing,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyError, err)
	return app.Settings.APIToken
}

// ConnectSession (re)creates the session against the current URL and token.
// The previous collection is discarded; callers refresh afterwards.
func (app *SaturdaysApp) ConnectSession() {
	repo := app.NewRepository(app.apiURL(), app.apiToken())
	s := session.New(repo, app.Clock)
	s.OnChange(func(st session.State) {
		fyne.Do(func() {
			// Ignore late transitions of a session replaced by the settings.
			if app.Session != s {
				return
			}
			app.applyState(st)
		})
	})
	app.Session = s
}

// refresh loads the collection. It blocks; UI callbacks run it in a goroutine.
func (app *SaturdaysApp) refresh() {
	err := app.Session.Refresh(app.Ctx)
	app.logOutcome(config.MsgLoadFailed, err)
	fyne.Do(func() { app.rollWindow() })
}

// save submits the collection and reconciles. It blocks like refresh.
func (app *SaturdaysApp) save() {
	err := app.Session.Save(app.Ctx)
	app.logOutcome(config.MsgSaveFailed, err)
}

func (app *SaturdaysApp) logOutcome(msg string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		slog.Debug(config.MsgBusy, config.LogKeyComponent, config.CompUI)
	default:
		slog.Warn(msg, config.LogKeyComponent, config.CompUI, config.LogKeyError, err)
	}
}

// summaryFormatter localizes feed event titles.
func (app *SaturdaysApp) summaryFormatter() func(ordinal int, date time.Time) string {
	return func(ordinal int, date time.Time) string {
		if app.Localizer != nil {
			msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{
				MessageID:    config.TKeyEvtSummary,
				TemplateData: map[string]any{"Ordinal": engine.OrdinalLabel(ordinal)},
			})
			if err == nil && msg != "" {
				return msg
			}
		}
		return fmt.Sprintf(config.DefaultSummary, engine.OrdinalLabel(ordinal))
	}
}
