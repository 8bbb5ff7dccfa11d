package tui

import (
	"fmt"
	"strings"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/result"
)

// State is what a surface is showing.
type State int

const (
	StateLoading State = iota
	StateNoCredential
	StateInvalidCredential
	StatePlanRequired
	StateReady
	StateConfirming
	StateSuccess
	StateError
	StateSettings
)

var stateNames = [...]string{
	StateLoading:           "loading",
	StateNoCredential:      "no-credential",
	StateInvalidCredential: "invalid-credential",
	StatePlanRequired:      "plan-required",
	StateReady:             "ready",
	StateConfirming:        "confirming",
	StateSuccess:           "success",
	StateError:             "error",
	StateSettings:          "settings",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MissingURL is shown when the confirmation page has nothing to confirm.
const MissingURL = "URLが指定されていません"

// Unreachable is shown when the credential probe cannot reach the service.
const Unreachable = "CuraQに接続できませんでした"

// Machine is the state of a popup or confirmation page. Transitions return
// the next Machine and never perform I/O.
type Machine struct {
	State State
	// Previous is the state to return to when settings close.
	Previous State
	// Busy is set while a request is in flight; the trigger is disabled.
	Busy bool
	// Pending is the article awaiting confirmation, if any.
	Pending *article.Pending
	// Result is the outcome of the last finished request.
	Result *result.Result
	// Message is the text shown in the success and error states.
	Message string

	confirmation bool
}

// PopupMachine is a popup that has yet to probe its credential.
func PopupMachine() Machine {
	return Machine{State: StateLoading}
}

// ConfirmationMachine is a confirmation page for p.
func ConfirmationMachine(p article.Pending) Machine {
	m := Machine{confirmation: true}
	if strings.TrimSpace(p.URL) == "" {
		m.State = StateError
		m.Message = MissingURL
		return m
	}
	return m.Confirm(p)
}

// Reprobe returns to loading ahead of a fresh credential probe.
func (m Machine) Reprobe() Machine {
	if m.State == StateSettings {
		m.Previous = StateLoading
		return m
	}
	m.State = StateLoading
	return m
}

// Probed applies the answer to a credential probe. Inside settings the
// answer takes effect when settings close.
func (m Machine) Probed(p channel.Probe) Machine {
	next, msg := StateReady, ""
	switch p {
	case channel.ProbeNoCredential:
		next = StateNoCredential
	case channel.ProbeInvalidCredential:
		next = StateInvalidCredential
	case channel.ProbePlanRequired:
		next = StatePlanRequired
	case channel.ProbeUnreachable:
		next, msg = StateError, Unreachable
	}
	if m.confirmation && next == StateReady {
		next = StateConfirming
		if m.Pending == nil {
			next, msg = StateError, MissingURL
		}
	}
	m.Message = msg
	if m.State == StateSettings {
		m.Previous = next
		return m
	}
	m.State = next
	return m
}

// Begin starts a request. It reports false, leaving m unchanged, when the
// trigger is not available: a request is already in flight or the surface
// is not in a state that can save.
func (m Machine) Begin() (Machine, bool) {
	if m.Busy {
		return m, false
	}
	want := StateReady
	if m.confirmation {
		want = StateConfirming
	}
	if m.State != want {
		return m, false
	}
	m.Busy = true
	return m, true
}

// Finished applies the outcome of a request. message is the user-facing
// text for it.
func (m Machine) Finished(r result.Result, message string) Machine {
	m.Busy = false
	m.Result = &r
	m.Message = message
	switch r.Status {
	case result.StatusSucceeded, result.StatusHandedOff:
		m.State = StateSuccess
		m.Pending = nil
	case result.StatusAwaitingConfirmation:
		m.Pending = r.Pending
		m.State = StateConfirming
		m.confirmation = true
	default:
		m.State = StateError
	}
	return m
}

// Failed ends a request that produced no result at all, e.g. because the
// background could not be reached.
func (m Machine) Failed(message string) Machine {
	m.Busy = false
	m.Result = nil
	m.Message = message
	m.State = StateError
	return m
}

// Retry leaves the error state for the state that can try again.
func (m Machine) Retry() Machine {
	if m.State != StateError || m.Busy {
		return m
	}
	switch {
	case m.confirmation && m.Pending != nil:
		m.State = StateConfirming
	case m.confirmation:
		return m
	default:
		m.State = StateReady
	}
	m.Message = ""
	return m
}

// OpenSettings shows the settings overlay, remembering the current state.
func (m Machine) OpenSettings() Machine {
	if m.State == StateSettings || m.Busy {
		return m
	}
	m.Previous = m.State
	m.State = StateSettings
	return m
}

// CloseSettings restores the state that was showing before settings.
func (m Machine) CloseSettings() Machine {
	if m.State != StateSettings {
		return m
	}
	m.State = m.Previous
	return m
}

// Confirm holds p and asks the user to confirm sending it.
func (m Machine) Confirm(p article.Pending) Machine {
	m.Pending = &p
	m.State = StateConfirming
	m.Message = ""
	m.confirmation = true
	return m
}

func (m Machine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "state=%s", m.State)
	if m.State == StateSettings {
		fmt.Fprintf(&sb, " previous=%s", m.Previous)
	}
	if m.Busy {
		sb.WriteString(" busy")
	}
	if m.Pending != nil {
		fmt.Fprintf(&sb, " pending=%s", m.Pending.URL)
	}
	if m.Message != "" && (m.State == StateSuccess || m.State == StateError) {
		fmt.Fprintf(&sb, " message=%s", m.Message)
	}
	return sb.String()
}
