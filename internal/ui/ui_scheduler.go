package ui

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/session"
)

// monthRow is one month of the rolling window with a check per Saturday.
type monthRow struct {
	month  engine.MonthYear
	label  *widget.Label
	checks []*widget.Check
}

// ShowScheduler displays the main window. Calling it again focuses the open window.
func (app *SaturdaysApp) ShowScheduler() {
	if app.Window != nil {
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.MsgOpenWindow, config.LogKeyComponent, config.CompUI)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w

	w.SetContent(app.buildSchedulerContent())
	w.Resize(fyne.NewSize(config.SchedulerWinWidth, config.SchedulerWinHeight))
	w.SetOnClosed(func() { app.Window = nil })
	w.SetMaster()

	app.applyState(app.Session.Snapshot())
	w.Show()
}

// buildSchedulerContent creates the rows for the current rolling window plus the action bar.
func (app *SaturdaysApp) buildSchedulerContent() fyne.CanvasObject {
	app.introLabel = widget.NewLabel(app.GetMsg(config.TKeyLblIntro))
	app.introLabel.Wrapping = fyne.TextWrapWord

	app.rows = app.rows[:0]
	list := container.NewVBox()
	for _, view := range app.Session.Window() {
		row := app.newMonthRow(view)
		app.rows = append(app.rows, row)

		boxes := make([]fyne.CanvasObject, len(row.checks))
		for i, c := range row.checks {
			boxes[i] = c
		}
		list.Add(widget.NewCard("", "", container.NewVBox(row.label, container.NewGridWithColumns(config.MaxOrdinal, boxes...))))
	}

	app.statusLabel = widget.NewLabel("")
	app.statusLabel.Wrapping = fyne.TextWrapWord

	app.btnRefresh = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnRefresh), theme.ViewRefreshIcon(), func() {
		app.runAsync(app.refresh)
	})
	app.btnSave = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		app.runAsync(app.save)
	})
	app.btnSave.Importance = widget.HighImportance
	app.btnSettings = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSettings), theme.SettingsIcon(), app.ShowSettingsWindow)
	btnExport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnExport), theme.DownloadIcon(), app.showExportDialog)

	actions := container.NewHBox(app.btnRefresh, app.btnSave, btnExport, app.btnSettings)

	return container.NewBorder(
		app.introLabel,
		container.NewVBox(app.statusLabel, actions),
		nil, nil,
		container.NewVScroll(list),
	)
}

// rollWindow rebuilds the rows when the current month moved since they were built.
func (app *SaturdaysApp) rollWindow() bool {
	if app.Window == nil || len(app.rows) == 0 {
		return false
	}
	if engine.WindowFrom(app.Clock)[0] == app.rows[0].month {
		return false
	}

	slog.Info(config.MsgWindowRolled,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyMonth, int(app.rows[0].month.Month),
		config.LogKeyYear, app.rows[0].month.Year)
	app.Window.SetContent(app.buildSchedulerContent())
	app.applyState(app.Session.Snapshot())
	return true
}

func (app *SaturdaysApp) newMonthRow(view session.MonthView) *monthRow {
	row := &monthRow{
		month: view.MonthYear,
		label: widget.NewLabel(app.monthLabel(view.MonthYear)),
	}
	row.label.TextStyle = fyne.TextStyle{Bold: true}

	for _, sat := range view.Saturdays {
		ordinal := sat.Ordinal
		check := widget.NewCheck(checkLabel(ordinal, sat.Date), nil)
		check.Checked = sat.Working
		check.OnChanged = func(checked bool) {
			if app.updating {
				return
			}
			app.Session.Toggle(row.month.Month, row.month.Year, ordinal, checked)
			app.applyState(app.Session.Snapshot())
		}
		row.checks = append(row.checks, check)
	}
	return row
}

// checkLabel renders "1st (02 Nov)".
func checkLabel(ordinal int, date time.Time) string {
	return fmt.Sprintf(config.CheckLabelFormat, engine.OrdinalLabel(ordinal), date.Format(config.SaturdayDateFormat))
}

// monthLabel renders the localized "November 2024".
func (app *SaturdaysApp) monthLabel(my engine.MonthYear) string {
	key := config.TKeyMonthPrefix + strconv.Itoa(int(my.Month))
	name := app.GetMsg(key)
	if name == key {
		name = my.Month.String()
	}
	return fmt.Sprintf(config.MonthLabelFormat, name, my.Year)
}

// applyState re-syncs every widget with st. Must run on the UI goroutine.
func (app *SaturdaysApp) applyState(st session.State) {
	if app.statusLabel == nil {
		return
	}

	app.updating = true
	for _, row := range app.rows {
		var record engine.MonthSaturdayRecord
		if i := engine.FindRecord(st.Records, int(row.month.Month), row.month.Year); i >= 0 {
			record = st.Records[i]
		}
		for i, c := range row.checks {
			if want := engine.IsWorking(record, i+1); c.Checked != want {
				c.SetChecked(want)
			}
		}
	}
	app.updating = false

	setEnabled(app.btnRefresh, !st.Loading)
	setEnabled(app.btnSave, !st.Saving)
	app.statusLabel.SetText(app.statusText(st))
}

// statusText picks the message for the status line, translating the generic ones.
func (app *SaturdaysApp) statusText(st session.State) string {
	switch {
	case st.Saving:
		return app.GetMsg(config.TKeyLblSaving)
	case st.Loading:
		return app.GetMsg(config.TKeyLblLoading)
	case st.Error == config.MsgLoadFailedGeneric:
		return app.GetMsg(config.TKeyMsgLoadFailed)
	case st.Error == config.MsgSaveFailedGeneric:
		return app.GetMsg(config.TKeyMsgSaveFailed)
	case st.Error != "":
		return st.Error
	case st.Notice == config.MsgSaved:
		return app.GetMsg(config.TKeyMsgSaved)
	default:
		return st.Notice
	}
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// showExportDialog writes the current selection as an iCalendar file.
func (app *SaturdaysApp) showExportDialog() {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer func() { _ = wc.Close() }()

		if err := app.exportTo(wc); err != nil {
			dialog.ShowError(err, app.Window)
			return
		}
		app.statusLabel.SetText(app.GetMsg(config.TKeyMsgExported))
	}, app.Window)
	d.SetFileName(config.ExportFileName)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtICS}))
	d.Show()
}

// exportTo renders the in-memory collection, unsaved edits included.
func (app *SaturdaysApp) exportTo(w io.Writer) error {
	b := &engine.FeedBuilder{Clock: app.Clock, FormatSummary: app.summaryFormatter()}
	data, count, err := b.Build(app.Session.Snapshot().Records)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrOutputFile, err)
	}
	slog.Info(config.MsgExported, config.LogKeyComponent, config.CompUI, config.LogKeyCount, count)
	return nil
}
