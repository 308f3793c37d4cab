package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-saturdays/internal/auth"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

// newHashTokenCmd prints the Argon2id hash the backend expects in SATURDAYS_TOKEN_HASH.
func newHashTokenCmd(c *cli) *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   config.CmdHashToken,
		Short: config.CmdDescHashToken,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.promptToken(unmask, true)
			if err != nil {
				return err
			}

			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, config.MsgHashOutput, hash)
			return err
		},
	}

	cmd.Flags().BoolVar(&unmask, config.FlagUnmask, false, config.FlagDescUnmask)
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   config.CmdToken,
		Short: config.CmdDescToken,
	}

	setCmd := &cobra.Command{
		Use:   config.CmdTokenSet,
		Short: config.CmdDescTokenSet,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.promptToken(unmask, false)
			if err != nil {
				return err
			}
			if err := keyring.Set(config.KeyringService, config.KeyringAccount, token); err != nil {
				return fmt.Errorf("%s: %w", config.ErrKeyringWrite, err)
			}
			slog.Info(config.MsgTokenStored, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&unmask, config.FlagUnmask, false, config.FlagDescUnmask)

	clearCmd := &cobra.Command{
		Use:   config.CmdTokenClear,
		Short: config.CmdDescTokenClear,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := keyring.Delete(config.KeyringService, config.KeyringAccount)
			if err != nil && !errors.Is(err, keyring.ErrNotFound) {
				return fmt.Errorf("%s: %w", config.ErrKeyringDelete, err)
			}
			slog.Info(config.MsgTokenCleared, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

// promptToken reads a non-empty token, optionally asking for a confirmation.
func (c *cli) promptToken(unmask, confirm bool) (string, error) {
	if unmask {
		_, _ = fmt.Fprint(c.errOut, config.MsgUnmaskWarning)
	}

	token, err := c.readSecret(config.PromptToken, unmask)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New(config.ErrTokenEmpty)
	}

	if confirm {
		again, err := c.readSecret(config.PromptConfirm, unmask)
		if err != nil {
			return "", err
		}
		if again != token {
			return "", errors.New(config.ErrTokenMismatch)
		}
	}
	return token, nil
}

// readSecret prompts on stderr so that stdout only carries the command's result.
// Input is hidden when stdin is a terminal, unless unmask is set.
func (c *cli) readSecret(prompt string, unmask bool) (string, error) {
	_, _ = fmt.Fprint(c.errOut, prompt)

	if f, ok := c.in.(*os.File); ok && !unmask && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(c.errOut)
		if err != nil {
			return "", fmt.Errorf("%s: %w", config.ErrReadInput, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%s: %w", config.ErrReadInput, err)
	}
	return strings.TrimSpace(line), nil
}
