package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/result"
)

// Action names a request on the wire.
type Action string

const (
	ActionExtractContent  Action = "extractContent"
	ActionSaveArticle     Action = "saveArticle"
	ActionSendArticleURL  Action = "sendArticleUrl"
	ActionCheckCredential Action = "checkCredential"
	ActionSetCredential   Action = "setCredential"
	ActionClearCredential Action = "clearCredential"
)

// Request is one of the request types in this file. The set is closed.
type Request interface {
	Action() Action
	validate() error
}

// ExtractContent asks a tab's content script for the page's article.
type ExtractContent struct{}

// SaveArticle asks the background to save the article shown in a tab.
// Confirm selects the variant that stops for user confirmation instead of
// capturing.
type SaveArticle struct {
	TabID   int  `json:"tabId"`
	Confirm bool `json:"confirm,omitempty"`
}

// SendArticleURL transmits a confirmed article by URL only.
type SendArticleURL struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// CheckCredential probes whether the stored token is accepted.
type CheckCredential struct{}

// SetCredential stores a new token.
type SetCredential struct {
	Token string `json:"token"`
}

// ClearCredential removes the stored token.
type ClearCredential struct{}

func (ExtractContent) Action() Action  { return ActionExtractContent }
func (SaveArticle) Action() Action     { return ActionSaveArticle }
func (SendArticleURL) Action() Action  { return ActionSendArticleURL }
func (CheckCredential) Action() Action { return ActionCheckCredential }
func (SetCredential) Action() Action   { return ActionSetCredential }
func (ClearCredential) Action() Action { return ActionClearCredential }

func (ExtractContent) validate() error  { return nil }
func (CheckCredential) validate() error { return nil }
func (SetCredential) validate() error   { return nil }
func (ClearCredential) validate() error { return nil }

func (r SaveArticle) validate() error {
	if r.TabID < 0 {
		return fmt.Errorf("saveArticle: invalid tab id %d", r.TabID)
	}
	return nil
}

func (r SendArticleURL) validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("sendArticleUrl: url is required")
	}
	return nil
}

// Probe is the answer to CheckCredential.
type Probe string

const (
	ProbeOK                Probe = "ok"
	ProbeNoCredential      Probe = "no-credential"
	ProbeInvalidCredential Probe = "invalid-credential"
	ProbePlanRequired      Probe = "plan-required"
	ProbeUnreachable       Probe = "unreachable"
)

// Response is the single answer to a Request.
type Response struct {
	Success bool `json:"success"`
	// Error is a user-facing message when Success is false.
	Error  string            `json:"error,omitempty"`
	Data   *article.Captured `json:"data,omitempty"`
	Result *result.Result    `json:"result,omitempty"`
	Probe  Probe             `json:"probe,omitempty"`
}

// Failure builds an unsuccessful Response.
func Failure(format string, args ...any) Response {
	return Response{Error: fmt.Sprintf(format, args...)}
}

// UnknownActionError is returned when a payload names no known action.
type UnknownActionError struct {
	Action Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("channel: unknown action %q", e.Action)
}

// UnsupportedError is returned when a receiver does not handle a known
// action (asking the background to extract content, say).
type UnsupportedError struct {
	Action Action
	At     Address
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("channel: %s does not handle %q", e.At, e.Action)
}

// envelope is the wire shape: {"action": ..., "id": ..., fields...}.
type envelope struct {
	Action Action `json:"action"`
	ID     string `json:"id,omitempty"`
}

// Encode serialises req with its action tag and correlation id.
func Encode(id string, req Request) ([]byte, error) {
	if req == nil {
		return nil, errors.New("channel: nil request")
	}
	fields, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", req.Action(), err)
	}
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(fields, &obj); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", req.Action(), err)
	}
	tag, _ := json.Marshal(req.Action())
	obj["action"] = tag
	if id != "" {
		idJSON, _ := json.Marshal(id)
		obj["id"] = idJSON
	}
	return json.Marshal(obj)
}

// Decode parses and validates a payload produced by Encode.
func Decode(data []byte) (id string, req Request, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("channel: malformed payload: %w", err)
	}

	switch env.Action {
	case ActionExtractContent:
		req, err = decodeInto[ExtractContent](data)
	case ActionSaveArticle:
		req, err = decodeInto[SaveArticle](data)
	case ActionSendArticleURL:
		req, err = decodeInto[SendArticleURL](data)
	case ActionCheckCredential:
		req, err = decodeInto[CheckCredential](data)
	case ActionSetCredential:
		req, err = decodeInto[SetCredential](data)
	case ActionClearCredential:
		req, err = decodeInto[ClearCredential](data)
	default:
		return env.ID, nil, &UnknownActionError{Action: env.Action}
	}
	if err != nil {
		return env.ID, nil, fmt.Errorf("channel: decoding %s: %w", env.Action, err)
	}
	if err := req.validate(); err != nil {
		return env.ID, nil, err
	}
	return env.ID, req, nil
}

func decodeInto[T Request](data []byte) (Request, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
