package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/session"
)

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdShow,
		Short: config.CmdDescShow,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			return writeWindow(c.out, s.Window())
		},
	}
}

// writeWindow prints one line per month: "November 2024   [ ] 1st (02 Nov)  [x] 2nd (09 Nov) ...".
func writeWindow(w io.Writer, months []session.MonthView) error {
	for _, m := range months {
		var b strings.Builder
		fmt.Fprintf(&b, "%-15s", monthLabel(m.MonthYear))
		for _, sat := range m.Saturdays {
			mark := config.MarkIdle
			if sat.Working {
				mark = config.MarkWorking
			}
			fmt.Fprintf(&b, "  %s %s", mark, fmt.Sprintf(config.CheckLabelFormat, engine.OrdinalLabel(sat.Ordinal), sat.Date.Format(config.SaturdayDateFormat)))
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func monthLabel(my engine.MonthYear) string {
	return fmt.Sprintf(config.MonthLabelFormat, my.Month.String(), my.Year)
}

func newSetCmd(c *cli) *cobra.Command {
	var (
		month, year, ordinal int
		unchecked            bool
	)

	cmd := &cobra.Command{
		Use:   config.CmdSet,
		Short: config.CmdDescSet,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSaturday(month, year, ordinal); err != nil {
				return err
			}

			s, err := c.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			working := s.Toggle(time.Month(month), year, ordinal, !unchecked)
			if err := s.Save(cmd.Context()); err != nil {
				return err
			}

			my := engine.MonthYear{Month: time.Month(month), Year: year}
			_, err = fmt.Fprintf(c.out, config.MsgSetOutput, monthLabel(my), working)
			return err
		},
	}

	cmd.Flags().IntVar(&month, config.FlagMonth, 0, config.FlagDescMonth)
	cmd.Flags().IntVar(&year, config.FlagYear, 0, config.FlagDescYear)
	cmd.Flags().IntVar(&ordinal, config.FlagOrdinal, 0, config.FlagDescOrdinal)
	cmd.Flags().BoolVar(&unchecked, config.FlagUnchecked, false, config.FlagDescUnchecked)
	_ = cmd.MarkFlagRequired(config.FlagMonth)
	_ = cmd.MarkFlagRequired(config.FlagYear)
	_ = cmd.MarkFlagRequired(config.FlagOrdinal)
	return cmd
}

// validateSaturday rejects a Saturday that does not exist before anything is sent.
func validateSaturday(month, year, ordinal int) error {
	switch {
	case month < 1 || month > 12:
		return errors.New(config.ErrMonthRange)
	case year < config.MinYear || year > config.MaxYear:
		return errors.New(config.ErrYearRange)
	case ordinal < 1 || ordinal > engine.SaturdayCount(time.Month(month), year):
		return errors.New(config.ErrOrdinalRange)
	}
	return nil
}

func newExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   config.CmdExport,
		Short: config.CmdDescExport,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSession(cmd.Context())
			if err != nil {
				return err
			}

			b := &engine.FeedBuilder{Clock: c.clock, Name: c.settings.FeedName}
			data, count, err := b.Build(s.Snapshot().Records)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = c.out.Write(data)
			} else {
				err = os.WriteFile(out, data, config.FilePermData)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrOutputFile, err)
			}

			slog.Info(config.MsgExported,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyCount, count,
				config.LogKeyFile, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, config.FlagOut, "", config.FlagDescOut)
	return cmd
}
