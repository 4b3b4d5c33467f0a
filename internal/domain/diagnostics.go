package domain

import "time"

// CheckStatus is the outcome of one startup check.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckFail CheckStatus = "fail"
)

// CheckItem is one startup check result with an optional hint.
type CheckItem struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

// CheckReport aggregates startup checks shown next to the model controls.
type CheckReport struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	HasFailures bool        `json:"hasFailures"`
	Items       []CheckItem `json:"items"`
}

// Failed returns only the failing items.
func (r CheckReport) Failed() []CheckItem {
	var out []CheckItem
	for _, item := range r.Items {
		if item.Status == CheckFail {
			out = append(out, item)
		}
	}
	return out
}
