package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/irfansharif/curaq/pkg/browser/fetch"
	"github.com/irfansharif/curaq/pkg/result"
	"github.com/irfansharif/curaq/pkg/saver"
)

// errSaveFailed is returned once a failure has been reported to the user.
var errSaveFailed = errors.New("save failed")

func newSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		tabID   int
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the article shown in a browser tab",
		Long: "Save the article shown in a browser tab. Without --tab the active tab is used.\n" +
			"With --confirm, the article is sent by URL only after confirming it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(nil, func(a *app) error {
				id := tabID
				if id < 0 {
					tab, err := a.host.Active(cmd.Context())
					if err != nil {
						return err
					}
					id = tab.ID
				}
				return a.save(cmd.Context(), cmd.OutOrStdout(), saver.Request{TabID: id, Confirm: confirm})
			})
		},
	}
	cmd.Flags().IntVar(&tabID, "tab", -1, "Tab to save (default: the active tab)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm before sending the article by URL")
	return cmd
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Fetch a page and save its article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := fetch.New()
			return ctx.withApp(host, func(a *app) error {
				tab, err := host.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.save(cmd.Context(), cmd.OutOrStdout(), saver.Request{TabID: tab.ID, Confirm: confirm})
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm before sending the article by URL")
	return cmd
}

// save runs one save and reports its outcome. An article awaiting
// confirmation is handed to the confirmation page.
func (a *app) save(ctx context.Context, out io.Writer, req saver.Request) error {
	outcome, err := a.saver.Save(ctx, req)
	if err != nil {
		return err
	}
	res := outcome.Result
	if res.Status == result.StatusAwaitingConfirmation && res.Pending != nil {
		return a.confirm(ctx, *res.Pending)
	}
	if outcome.Notification != nil {
		fmt.Fprintln(out, outcome.Notification.String())
	} else {
		fmt.Fprintln(out, res.String())
	}
	if res.Status == result.StatusFailed {
		return errSaveFailed
	}
	return nil
}
