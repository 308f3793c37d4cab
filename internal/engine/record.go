package engine

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-saturdays/internal/config"
)

// MonthSaturdayRecord lists the Saturdays of one month that are working days.
// Saturdays absent from WorkingSaturdays are holidays.
type MonthSaturdayRecord struct {
	// ID, CreatedAt and UpdatedAt are assigned by the backend.
	ID string `json:"_id,omitempty"`

	Month int `json:"month" validate:"min=1,max=12"`
	Year  int `json:"year" validate:"min=1000,max=9999"`

	// WorkingSaturdays holds ordinals (1st, 2nd, ...) of Saturdays within the month.
	WorkingSaturdays []int `json:"workingSaturdays" validate:"unique,dive,min=1,max=5"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// MonthYear identifies one month of the rolling window.
type MonthYear struct {
	Month time.Month
	Year  int
}

// Envelope is the JSON body exchanged on /alternate-saturdays in both directions.
type Envelope struct {
	AlternateSaturdays []MonthSaturdayRecord `json:"alternateSaturdays"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRecords checks field ranges and the one-record-per-month rule.
// Parity is not checked: stored data is accepted as-is.
func ValidateRecords(records []MonthSaturdayRecord) error {
	seen := make(map[MonthYear]struct{}, len(records))
	for i := range records {
		r := &records[i]
		if err := validate.Struct(r); err != nil {
			var vErrs validator.ValidationErrors
			if errors.As(err, &vErrs) && len(vErrs) > 0 {
				return fmt.Errorf("%s: record %d: field %s failed %q", config.ErrValidationFailed, i, vErrs[0].Field(), vErrs[0].Tag())
			}
			return fmt.Errorf("%s: record %d: %w", config.ErrValidationFailed, i, err)
		}

		key := MonthYear{Month: time.Month(r.Month), Year: r.Year}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: %02d/%d", config.ErrDuplicateMonth, r.Month, r.Year)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// FindRecord returns the index of the record for (month, year), or -1.
func FindRecord(records []MonthSaturdayRecord, month, year int) int {
	for i := range records {
		if records[i].Month == month && records[i].Year == year {
			return i
		}
	}
	return -1
}

// UpsertRecord overwrites WorkingSaturdays of the existing record for (month, year)
// or appends a new record when the month has none yet.
func UpsertRecord(records []MonthSaturdayRecord, month, year int, working []int) []MonthSaturdayRecord {
	if i := FindRecord(records, month, year); i >= 0 {
		records[i].WorkingSaturdays = slices.Clone(working)
		return records
	}
	return append(records, MonthSaturdayRecord{
		Month:            month,
		Year:             year,
		WorkingSaturdays: slices.Clone(working),
	})
}

// IsWorking reports whether the given Saturday ordinal is a working day in r.
func IsWorking(r MonthSaturdayRecord, ordinal int) bool {
	return slices.Contains(r.WorkingSaturdays, ordinal)
}

// CloneRecords deep-copies a collection so callers never share backing arrays.
func CloneRecords(records []MonthSaturdayRecord) []MonthSaturdayRecord {
	if records == nil {
		return nil
	}
	out := make([]MonthSaturdayRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].WorkingSaturdays = slices.Clone(r.WorkingSaturdays)
		if r.CreatedAt != nil {
			t := *r.CreatedAt
			out[i].CreatedAt = &t
		}
		if r.UpdatedAt != nil {
			t := *r.UpdatedAt
			out[i].UpdatedAt = &t
		}
	}
	return out
}

// SortRecords orders records chronologically (year, then month).
func SortRecords(records []MonthSaturdayRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year < records[j].Year
		}
		return records[i].Month < records[j].Month
	})
}
