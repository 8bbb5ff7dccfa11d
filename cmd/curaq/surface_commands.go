package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/tui"
)

func newPopupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "popup",
		Short: "Open the popup for the active tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(nil, func(a *app) error {
				return runSurface(cmd.Context(), tui.NewPopupModel(a.surfaceOptions(cmd.Context())))
			})
		},
	}
}

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	var pending article.Pending
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm sending an article to CuraQ by URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(nil, func(a *app) error {
				return a.confirm(cmd.Context(), pending)
			})
		},
	}
	cmd.Flags().StringVar(&pending.URL, "url", "", "URL of the article")
	cmd.Flags().StringVar(&pending.Title, "title", "", "Title of the article")
	return cmd
}

func (a *app) surfaceOptions(ctx context.Context) tui.Options {
	return tui.Options{
		Bus:     a.bus,
		Host:    a.host,
		Base:    a.cfg.Endpoint,
		Context: ctx,
	}
}

func (a *app) confirm(ctx context.Context, p article.Pending) error {
	p.URL = strings.TrimSpace(p.URL)
	return runSurface(ctx, tui.NewConfirmModel(p, a.surfaceOptions(ctx)))
}

func runSurface(ctx context.Context, model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
