// Package result defines the single outcome every save attempt produces and
// the user-facing text for it.
package result

import (
	"fmt"

	"github.com/irfansharif/curaq/pkg/article"
)

// Status tags a Result.
type Status string

const (
	StatusSucceeded            Status = "succeeded"
	StatusHandedOff            Status = "handed-off"
	StatusAwaitingConfirmation Status = "awaiting-confirmation"
	StatusFailed               Status = "failed"
)

// Kind classifies a failure.
type Kind string

const (
	KindExtractionFailed   Kind = "extraction-failed"
	KindPageNotCapturable  Kind = "page-not-capturable"
	KindInvalidCredential  Kind = "invalid-credential"
	KindPlanRequired       Kind = "plan-required"
	KindUnreadLimit        Kind = "unread-limit"
	KindMonthlyLimit       Kind = "monthly-limit"
	KindAlreadyRead        Kind = "already-read"
	KindInvalidContent     Kind = "invalid-content"
	KindRemoteFetchTimeout Kind = "remote-fetch-timeout"
	KindNetworkError       Kind = "network-error"
	KindUnknown            Kind = "unknown"
)

// Result is the outcome of one save request.
type Result struct {
	Status   Status `json:"status"`
	Restored bool   `json:"restored,omitempty"`
	// HandOffURL is the page opened for a HandedOff result.
	HandOffURL string           `json:"handOffUrl,omitempty"`
	Pending    *article.Pending `json:"pending,omitempty"`
	Kind       Kind             `json:"kind,omitempty"`
	Detail     string           `json:"detail,omitempty"`
}

func Succeeded(restored bool) Result {
	return Result{Status: StatusSucceeded, Restored: restored}
}

func HandedOff(url string) Result {
	return Result{Status: StatusHandedOff, HandOffURL: url}
}

func AwaitingConfirmation(p article.Pending) Result {
	return Result{Status: StatusAwaitingConfirmation, Pending: &p}
}

func Failed(kind Kind, detail string) Result {
	return Result{Status: StatusFailed, Kind: kind, Detail: detail}
}

// Unknown is a failure the taxonomy has no name for.
func Unknown(detail string) Result {
	return Failed(KindUnknown, detail)
}

func (r Result) OK() bool { return r.Status == StatusSucceeded }

func (r Result) String() string {
	switch r.Status {
	case StatusSucceeded:
		return fmt.Sprintf("succeeded restored=%t", r.Restored)
	case StatusHandedOff:
		return fmt.Sprintf("handed-off url=%s", r.HandOffURL)
	case StatusAwaitingConfirmation:
		if r.Pending == nil {
			return "awaiting-confirmation"
		}
		return fmt.Sprintf("awaiting-confirmation url=%s title=%s", r.Pending.URL, r.Pending.Title)
	case StatusFailed:
		if r.Detail != "" {
			return fmt.Sprintf("failed kind=%s detail=%s", r.Kind, r.Detail)
		}
		return fmt.Sprintf("failed kind=%s", r.Kind)
	}
	return string(r.Status)
}
