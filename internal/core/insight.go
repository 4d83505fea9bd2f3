package core

import "errors"

const (
	TrendIncrease TrendType = "increase"
	TrendDecrease TrendType = "decrease"
	TrendStable   TrendType = "stable"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type (
	TrendType string
	Priority  string

	// Trend describes how spending in one category moved month over month.
	Trend struct {
		Type        TrendType `json:"type"`
		Category    string    `json:"category"`
		Change      string    `json:"change"`
		Description string    `json:"description"`
	}

	Recommendation struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Priority    Priority `json:"priority"`
	}

	BudgetHealth struct {
		Score       int    `json:"score"`
		Status      string `json:"status"`
		Description string `json:"description"`
	}

	// Insight is one AI analysis result, keyed by its month identifier.
	// The insight cache holds at most one Insight per month.
	Insight struct {
		Month           string           `json:"month"`
		Summary         string           `json:"summary"`
		Trends          []Trend          `json:"trends"`
		Recommendations []Recommendation `json:"recommendations"`
		BudgetHealth    BudgetHealth     `json:"budgetHealth"`
	}
)

var (
	ErrInvalidMonthKey = errors.New("invalid month key")
	ErrInvalidScore    = errors.New("budget health score out of range")
)

func (t TrendType) IsValid() bool {
	switch t {
	case TrendIncrease, TrendDecrease, TrendStable:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func (i Insight) Validate() error {
	if _, err := ParseMonthKey(i.Month); err != nil {
		return ErrInvalidMonthKey
	}
	if i.BudgetHealth.Score < 0 || i.BudgetHealth.Score > 100 {
		return ErrInvalidScore
	}
	for _, t := range i.Trends {
		if !t.Type.IsValid() {
			return errors.New("invalid trend type: " + string(t.Type))
		}
	}
	for _, r := range i.Recommendations {
		if !r.Priority.IsValid() {
			return errors.New("invalid recommendation priority: " + string(r.Priority))
		}
	}
	return nil
}
