package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/session"
	"github.com/zalando/go-keyring"
)

// cli carries what every subcommand shares: streams, settings and injectable collaborators.
type cli struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer

	debug     bool
	settings  *config.Settings
	logCloser io.Closer

	clock         engine.Clock
	newRepository func(baseURL, token string) session.Repository
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		clock:  engine.RealClock{},
		newRepository: func(baseURL, token string) session.Repository {
			return engine.NewClient(baseURL, token)
		},
	}
}

// close releases the log file, if any.
func (c *cli) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close() // Best effort close
		c.logCloser = nil
	}
}

func newRootCmd(c *cli) *cobra.Command {
	gui := newGUICmd(c)

	cmd := &cobra.Command{
		Use:           config.AppBinary,
		Short:         config.CmdDescRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.close()
			c.logCloser = setupLogging(c.errOut, c.debug)
			logStartupInfo()

			settings, err := config.LoadSettings(config.DefaultEnvFiles)
			if err != nil {
				return err
			}
			c.settings = settings
			return nil
		},
		RunE: gui.RunE,
	}
	cmd.SetIn(c.in)
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)
	cmd.PersistentFlags().BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)

	cmd.AddCommand(
		gui,
		newServeCmd(c),
		newShowCmd(c),
		newSetCmd(c),
		newExportCmd(c),
		newHashTokenCmd(c),
		newTokenCmd(c),
		newVersionCmd(c),
	)
	return cmd
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.CmdDescVersion,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion(c.out)
			return nil
		},
	}
}

// apiToken reads the client token from the OS keyring, falling back to the environment.
func (c *cli) apiToken() string {
	token, err := keyring.Get(config.KeyringService, config.KeyringAccount)
	if err == nil && token != "" {
		return token
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug(config.MsgTokenMissing,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
	}
	return c.settings.APIToken
}

// loadSession connects to the backend and performs the initial load.
func (c *cli) loadSession(ctx context.Context) (*session.Session, error) {
	s := session.New(c.newRepository(c.settings.APIURL, c.apiToken()), c.clock)
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *cli) logStop() {
	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
}
