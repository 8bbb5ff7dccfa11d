package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/credential"
	"github.com/irfansharif/curaq/pkg/tui"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the CuraQ API token",
	}
	tokenCmd.AddCommand(newTokenSetCommand(ctx))
	tokenCmd.AddCommand(newTokenClearCommand(ctx))
	tokenCmd.AddCommand(newTokenStatusCommand(ctx))
	return tokenCmd
}

func newTokenSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Store the API token (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = line
			}
			return ctx.withApp(nil, func(a *app) error {
				if err := a.saver.SetCredential(cmd.Context(), token); err != nil {
					if errors.Is(err, credential.ErrEmpty) {
						return errors.New("トークンを入力してください")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "トークンを保存しました")
				return nil
			})
		},
	}
}

func newTokenClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(nil, func(a *app) error {
				if err := a.saver.ClearCredential(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "トークンを削除しました")
				return nil
			})
		},
	}
}

func newTokenStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether CuraQ accepts the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(nil, func(a *app) error {
				probe, err := a.saver.CheckCredential(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), probeText(probe))
				return nil
			})
		},
	}
}

func probeText(p channel.Probe) string {
	switch p {
	case channel.ProbeOK:
		return "ok: トークンは有効です"
	case channel.ProbeNoCredential:
		return "no-credential: トークンが登録されていません"
	case channel.ProbeInvalidCredential:
		return "invalid-credential: トークンが無効です"
	case channel.ProbePlanRequired:
		return "plan-required: 有料プランが必要です"
	case channel.ProbeUnreachable:
		return "unreachable: " + tui.Unreachable
	}
	return strings.TrimSpace(string(p))
}
