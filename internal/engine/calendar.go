package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-saturdays/internal/config"
)

// FeedBuilder renders a collection of month records as an iCalendar feed.
type FeedBuilder struct {
	Clock Clock // Interface for time mocking (DTSTAMP).

	// Name is the calendar display name; empty means config.ICalCalName.
	Name string

	// FormatSummary allows callers to inject localized event titles.
	FormatSummary func(ordinal int, date time.Time) string
}

// Build returns the ICS data and the number of working Saturdays it contains.
// Ordinals that do not exist in their month are skipped.
func (b *FeedBuilder) Build(records []MonthSaturdayRecord) ([]byte, int, error) {
	cal := ical.NewCalendar()

	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	name := b.Name
	if name == "" {
		name = config.ICalCalName
	}
	cal.Props.SetText(config.PropXWRCalName, name)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	clock := b.Clock
	if clock == nil {
		clock = RealClock{}
	}
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(clock.Now().UTC())

	sorted := CloneRecords(records)
	SortRecords(sorted)

	count := 0
	for _, r := range sorted {
		saturdays := SaturdaysInMonth(time.Month(r.Month), r.Year)
		seen := make(map[int]bool, len(r.WorkingSaturdays))
		for _, ordinal := range r.WorkingSaturdays {
			// Repeated ordinals would yield events sharing one UID.
			if seen[ordinal] {
				continue
			}
			seen[ordinal] = true

			if ordinal < 1 || ordinal > len(saturdays) {
				slog.Debug(config.ErrOrdinalRange,
					config.LogKeyComponent, config.CompEngine,
					config.LogKeyMonth, r.Month,
					config.LogKeyYear, r.Year,
					config.LogKeyOrdinal, ordinal)
				continue
			}

			event := b.newEvent(r, ordinal, saturdays[ordinal-1])
			event.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, event.Component)
			count++
		}
	}

	// No working Saturday: serve the minimal stub so subscribers still get a valid feed.
	if count == 0 {
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), count, nil
}

// newEvent creates the all-day event of one working Saturday.
func (b *FeedBuilder) newEvent(r MonthSaturdayRecord, ordinal int, date time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, r.Year, r.Month, ordinal, config.ICalDomain))

	summary := fmt.Sprintf(config.DefaultSummary, OrdinalLabel(ordinal))
	if b.FormatSummary != nil {
		summary = b.FormatSummary(ordinal, date)
	}
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropTransp, config.ICalTranspOpaque)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(date)
	event.Props.Set(dtStartProp)

	return event
}
