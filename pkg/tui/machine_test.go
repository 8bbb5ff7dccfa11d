package tui

import (
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/result"
)

func TestMachine(t *testing.T) {
	datadriven.Walk(t, "testdata/machine", func(t *testing.T, path string) {
		var m Machine
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "popup":
				m = PopupMachine()
			case "confirm":
				var p article.Pending
				if d.HasArg("url") {
					d.ScanArgs(t, "url", &p.URL)
				}
				if d.HasArg("title") {
					d.ScanArgs(t, "title", &p.Title)
				}
				m = ConfirmationMachine(p)
			case "probed":
				m = m.Probed(channel.Probe(d.CmdArgs[0].Key))
			case "reprobe":
				m = m.Reprobe()
			case "begin":
				next, ok := m.Begin()
				m = next
				if !ok {
					return "rejected\n" + m.String() + "\n"
				}
			case "finish":
				r := parseResult(t, d)
				_, msg := result.Text(r, "A")
				m = m.Finished(r, msg)
			case "failed":
				m = m.Failed(strings.TrimSpace(d.Input))
			case "retry":
				m = m.Retry()
			case "settings":
				m = m.OpenSettings()
			case "close":
				m = m.CloseSettings()
			default:
				d.Fatalf(t, "unknown command %q", d.Cmd)
			}
			return m.String() + "\n"
		})
	})
}

// parseResult reads a result written as "succeeded [restored]", "failed
// <kind>", "handed-off <url>" or "awaiting <url> [title]".
func parseResult(t *testing.T, d *datadriven.TestData) result.Result {
	fields := strings.Fields(d.Input)
	if len(fields) == 0 {
		d.Fatalf(t, "finish requires a result")
	}
	switch fields[0] {
	case "succeeded":
		return result.Succeeded(len(fields) > 1 && fields[1] == "restored")
	case "failed":
		return result.Failed(result.Kind(fields[1]), "")
	case "handed-off":
		return result.HandedOff(fields[1])
	case "awaiting":
		p := article.Pending{URL: fields[1]}
		if len(fields) > 2 {
			p.Title = fields[2]
		}
		return result.AwaitingConfirmation(p)
	}
	d.Fatalf(t, "unknown result %q", d.Input)
	return result.Result{}
}
