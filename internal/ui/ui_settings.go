package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect *widget.Select
	urlEntry   *widget.Entry
	tokenEntry *widget.Entry
}

// ShowSettingsWindow displays the connection and language settings.
func (app *SaturdaysApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgOpenWindow, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	itemURL := widget.NewFormItem(app.GetMsg(config.TKeyLblURL), sw.urlEntry)
	itemURL.HintText = app.GetMsg(config.TKeyHelpURL)
	itemToken := widget.NewFormItem(app.GetMsg(config.TKeyLblToken), sw.tokenEntry)
	itemToken.HintText = app.GetMsg(config.TKeyHelpToken)
	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)

	form := widget.NewForm(itemURL, itemToken, itemLang)

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		if err := sw.urlEntry.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(sw)
		w.Close()
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footer := widget.NewLabel(fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		form,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footer,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWinWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

func (app *SaturdaysApp) newSettingsWidgets() *settingsWidgets {
	sw := &settingsWidgets{}

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.PlaceHolder = config.PlaceholderURL
	sw.urlEntry.SetText(app.apiURL())
	sw.urlEntry.Validator = app.validateURL

	sw.tokenEntry = widget.NewPasswordEntry()
	if token, err := keyring.Get(config.KeyringService, config.KeyringAccount); err == nil {
		sw.tokenEntry.SetText(token)
	}

	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(app.language())
	return sw
}

// validateURL accepts absolute http(s) URLs only.
func (app *SaturdaysApp) validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New(app.GetMsg(config.TKeyErrURLReq))
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS) {
		return errors.New(app.GetMsg(config.TKeyErrURLScheme))
	}
	return nil
}

// saveSettings persists preferences and the token, then reconnects and reloads.
// An empty token removes the stored one.
func (app *SaturdaysApp) saveSettings(sw *settingsWidgets) {
	log := slog.With(config.LogKeyComponent, config.CompUISet)

	app.Preferences.SetString(config.PrefAPIURL, strings.TrimSpace(sw.urlEntry.Text))
	if sw.langSelect.Selected != "" {
		app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)
	}

	if token := strings.TrimSpace(sw.tokenEntry.Text); token != "" {
		if err := keyring.Set(config.KeyringService, config.KeyringAccount, token); err != nil {
			log.Error(config.ErrKeyringWrite, config.LogKeyError, err)
		}
	} else if err := keyring.Delete(config.KeyringService, config.KeyringAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Error(config.ErrKeyringDelete, config.LogKeyError, err)
	}

	log.Info(config.MsgSettingsSaved)

	app.UpdateLocalizer()
	app.ConnectSession()
	app.rebuildScheduler()

	app.runAsync(app.refresh)
}

// rebuildScheduler re-creates the scheduler content with the current language and session.
func (app *SaturdaysApp) rebuildScheduler() {
	if app.Window == nil {
		return
	}
	app.Window.SetTitle(app.GetMsg(config.TKeyWinTitle))
	app.Window.SetContent(app.buildSchedulerContent())
	app.applyState(app.Session.Snapshot())
}
