package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/session"
	"github.com/zalando/go-keyring"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockRepository simulates the backend using testify/mock.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Load(ctx context.Context) ([]engine.MonthSaturdayRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.MonthSaturdayRecord), args.Error(1)
}

func (m *MockRepository) Replace(ctx context.Context, records []engine.MonthSaturdayRecord) error {
	return m.Called(ctx, records).Error(0)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// repoCall records the arguments given to the repository factory.
type repoCall struct {
	url, token string
}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

// setupTestApp initializes a headless Fyne app with a mocked backend, in English, in November 2024.
func setupTestApp(t *testing.T) (*SaturdaysApp, *MockRepository, *[]repoCall) {
	t.Helper()
	keyring.MockInit()

	a := test.NewApp()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := NewSaturdaysApp(a, ctx, &config.Settings{APIURL: "http://backend.test", APIToken: "env-token", Language: "en"})
	app.Clock = MockClock{CurrentTime: time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)}
	app.runAsync = func(f func()) { f() }

	repo := new(MockRepository)
	calls := &[]repoCall{}
	app.NewRepository = func(url, token string) session.Repository {
		*calls = append(*calls, repoCall{url, token})
		return repo
	}

	app.SetupI18n()
	app.ConnectSession()
	return app, repo, calls
}

// syncWidgets pushes the session state to the widgets like the OnChange listener does.
func syncWidgets(app *SaturdaysApp) {
	app.applyState(app.Session.Snapshot())
}

func checked(row *monthRow) []int {
	var out []int
	for i, c := range row.checks {
		if c.Checked {
			out = append(out, i+1)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Scheduler
// -----------------------------------------------------------------------------

func TestScheduler_Layout(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.ShowScheduler()

	require.Len(t, app.rows, config.WindowLength)

	nov := app.rows[0]
	assert.Equal(t, "November 2024", nov.label.Text)
	require.Len(t, nov.checks, 5)
	assert.Equal(t, "1st (02 Nov)", nov.checks[0].Text)
	assert.Equal(t, "5th (30 Nov)", nov.checks[4].Text)

	assert.Len(t, app.rows[3].checks, 4, "February 2025 has four Saturdays")
	assert.Equal(t, "October 2025", app.rows[11].label.Text)
	assert.Equal(t, "Alternate Saturdays", app.Window.Title())
}

// TestScheduler_TapFlipsWholeMonth drives the checks like a user would.
func TestScheduler_TapFlipsWholeMonth(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.ShowScheduler()
	nov := app.rows[0]

	test.Tap(nov.checks[1])
	assert.Equal(t, []int{2, 4}, checked(nov))

	test.Tap(nov.checks[0])
	assert.Equal(t, []int{1, 3, 5}, checked(nov), "checking an odd Saturday replaces the even pattern")

	test.Tap(nov.checks[2])
	assert.Equal(t, []int{2, 4}, checked(nov), "unchecking an odd Saturday selects the even pattern")

	assert.Empty(t, checked(app.rows[1]), "other months are untouched")

	st := app.Session.Snapshot()
	require.Len(t, st.Records, 1)
	assert.Equal(t, []int{2, 4}, st.Records[0].WorkingSaturdays)
}

func TestRefresh_PopulatesChecks(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Load", mock.Anything).Return([]engine.MonthSaturdayRecord{
		{ID: "d", Month: 12, Year: 2024, WorkingSaturdays: []int{1, 3}},
		{ID: "x", Month: 1, Year: 2030, WorkingSaturdays: []int{2}},
	}, nil)

	app.ShowScheduler()
	app.refresh()
	syncWidgets(app)

	assert.Equal(t, []int{1, 3}, checked(app.rows[1]))
	assert.Empty(t, app.statusLabel.Text)
	assert.Len(t, app.Session.Snapshot().Records, 2, "months outside the window are kept")
}

func TestRefresh_FailureStatus(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Load", mock.Anything).Return(nil, errors.New("connection refused"))

	app.ShowScheduler()
	app.refresh()
	syncWidgets(app)
	assert.Equal(t, "Failed to load alternate Saturdays.", app.statusLabel.Text)

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	syncWidgets(app)
	assert.Equal(t, "Échec du chargement des samedis alternés.", app.statusLabel.Text)
}

func TestSave_ReconcilesAndConfirms(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Replace", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("Load", mock.Anything).Return([]engine.MonthSaturdayRecord{
		{ID: "srv", Month: 11, Year: 2024, WorkingSaturdays: []int{1, 3, 5}},
	}, nil).Once()

	app.ShowScheduler()
	test.Tap(app.rows[0].checks[0])
	app.save()
	syncWidgets(app)

	assert.Equal(t, "Alternate Saturdays saved.", app.statusLabel.Text)
	assert.Equal(t, []int{1, 3, 5}, checked(app.rows[0]))
	repo.AssertExpectations(t)
}

func TestSave_BackendMessageShown(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Replace", mock.Anything, mock.Anything).
		Return(&engine.APIError{StatusCode: 422, Message: "month must be between 1 and 12"})

	app.ShowScheduler()
	test.Tap(app.rows[0].checks[1])
	app.save()
	syncWidgets(app)

	assert.Equal(t, "month must be between 1 and 12", app.statusLabel.Text)
	assert.Equal(t, []int{2, 4}, checked(app.rows[0]), "edits survive a failed save")
}

func TestApplyState_BusyFlags(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.ShowScheduler()

	app.applyState(session.State{Loading: true})
	assert.True(t, app.btnRefresh.Disabled())
	assert.False(t, app.btnSave.Disabled())
	assert.Equal(t, "Loading...", app.statusLabel.Text)

	app.applyState(session.State{Saving: true})
	assert.False(t, app.btnRefresh.Disabled())
	assert.True(t, app.btnSave.Disabled())
	assert.Equal(t, "Saving...", app.statusLabel.Text)

	app.applyState(session.State{})
	assert.False(t, app.btnRefresh.Disabled())
	assert.False(t, app.btnSave.Disabled())
}

// TestConnectSession_IgnoresReplacedSession keeps a superseded session from painting the rows.
func TestConnectSession_IgnoresReplacedSession(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.ShowScheduler()

	old := app.Session
	app.ConnectSession()
	require.NotSame(t, old, app.Session)

	old.Toggle(time.November, 2024, 1, true)
	assert.Empty(t, checked(app.rows[0]))
	assert.Empty(t, app.Session.Snapshot().Records)
}

// TestRefresh_RollsWindowAtMonthChange keeps the first row on the current month.
func TestRefresh_RollsWindowAtMonthChange(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Load", mock.Anything).Return([]engine.MonthSaturdayRecord{
		{Month: 11, Year: 2025, WorkingSaturdays: []int{2, 4}},
	}, nil)

	clock := &MockClock{CurrentTime: time.Date(2024, 11, 30, 23, 0, 0, 0, time.UTC)}
	app.Clock = clock
	app.ConnectSession()
	app.ShowScheduler()
	require.Equal(t, "November 2024", app.rows[0].label.Text)
	assert.False(t, app.rollWindow(), "same month")

	clock.CurrentTime = time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)
	app.refresh()
	app.rollWindow()

	require.Len(t, app.rows, config.WindowLength)
	assert.Equal(t, "December 2024", app.rows[0].label.Text)
	assert.Equal(t, "November 2025", app.rows[11].label.Text)
	assert.Equal(t, []int{2, 4}, checked(app.rows[11]))
}

func TestExportTo_LocalizedSummary(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.ShowScheduler()
	test.Tap(app.rows[0].checks[0])

	var buf bytes.Buffer
	require.NoError(t, app.exportTo(&buf))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, buf.String(), "SUMMARY:Working Saturday (1st)")

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	buf.Reset()
	require.NoError(t, app.exportTo(&buf))
	assert.Contains(t, buf.String(), "SUMMARY:Samedi travaillé (1st)")
}

func TestMonthLabel_WithoutLocalizer(t *testing.T) {
	app := &SaturdaysApp{}
	assert.Equal(t, "March 2025", app.monthLabel(engine.MonthYear{Month: time.March, Year: 2025}))
}

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

func TestConnectSession_TokenSources(t *testing.T) {
	app, _, calls := setupTestApp(t)
	require.Len(t, *calls, 1)
	assert.Equal(t, repoCall{"http://backend.test", "env-token"}, (*calls)[0], "environment is the fallback")

	require.NoError(t, keyring.Set(config.KeyringService, config.KeyringAccount, "ring-token"))
	app.Preferences.SetString(config.PrefAPIURL, "https://hr.example.com")
	app.ConnectSession()
	assert.Equal(t, repoCall{"https://hr.example.com", "ring-token"}, (*calls)[1])
}

func TestSaveSettings_PersistsAndReconnects(t *testing.T) {
	app, repo, calls := setupTestApp(t)
	repo.On("Load", mock.Anything).Return([]engine.MonthSaturdayRecord{}, nil)
	app.ShowScheduler()

	sw := app.newSettingsWidgets()
	assert.Equal(t, "http://backend.test", sw.urlEntry.Text)

	sw.urlEntry.SetText("https://hr.example.com ")
	sw.tokenEntry.SetText("new-token")
	sw.langSelect.SetSelected("fr")
	app.saveSettings(sw)

	assert.Equal(t, "https://hr.example.com", app.Preferences.String(config.PrefAPIURL))
	assert.Equal(t, "fr", app.Preferences.String(config.PrefLanguage))

	token, err := keyring.Get(config.KeyringService, config.KeyringAccount)
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)

	assert.Equal(t, repoCall{"https://hr.example.com", "new-token"}, (*calls)[len(*calls)-1])
	assert.Equal(t, "Samedis alternés", app.Window.Title())
	assert.Equal(t, "novembre 2024", app.rows[0].label.Text)
	repo.AssertCalled(t, "Load", mock.Anything)
}

func TestSaveSettings_EmptyTokenRemoves(t *testing.T) {
	app, repo, _ := setupTestApp(t)
	repo.On("Load", mock.Anything).Return([]engine.MonthSaturdayRecord{}, nil)
	require.NoError(t, keyring.Set(config.KeyringService, config.KeyringAccount, "old"))

	sw := app.newSettingsWidgets()
	assert.Equal(t, "old", sw.tokenEntry.Text)
	sw.tokenEntry.SetText("")
	app.saveSettings(sw)

	_, err := keyring.Get(config.KeyringService, config.KeyringAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestValidateURL(t *testing.T) {
	app, _, _ := setupTestApp(t)

	tests := []struct {
		in      string
		wantErr string
	}{
		{"https://hr.example.com", ""},
		{"http://127.0.0.1:18090", ""},
		{"", "The API URL is required"},
		{"   ", "The API URL is required"},
		{"ftp://example.com", "The API URL must start with http:// or https://"},
		{"hr.example.com", "The API URL must start with http:// or https://"},
	}

	for _, tt := range tests {
		err := app.validateURL(tt.in)
		if tt.wantErr == "" {
			assert.NoError(t, err, tt.in)
			continue
		}
		assert.EqualError(t, err, tt.wantErr, tt.in)
	}
}

func TestShowSettingsWindow_Singleton(t *testing.T) {
	app, _, _ := setupTestApp(t)

	app.ShowSettingsWindow()
	first := app.settingsWindow
	require.NotNil(t, first)

	app.ShowSettingsWindow()
	assert.Same(t, first, app.settingsWindow)
	assert.Equal(t, "Settings", first.Title())

	first.Close()
	assert.Nil(t, app.settingsWindow)
}
