package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Uncategorized is the fallback category assigned to transactions whose
// category has been deleted. It is an implicit sentinel and is never
// required to be a member of the category set.
const Uncategorized = "Uncategorized"

type (
	Status string

	Date struct {
		time.Time
	}

	// Transaction is a single payment record. The ID is assigned by the
	// store at creation time, never by the caller.
	Transaction struct {
		ID            string `json:"id"`
		Date          Date   `json:"date"`
		Merchant      string `json:"merchant"`
		Amount        Money  `json:"amount"`
		Category      string `json:"category"`
		Description   string `json:"description"`
		Status        Status `json:"status"`
		PaymentMethod string `json:"paymentMethod"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidStatus = errors.New("invalid status")
	ErrEmptyMerchant = errors.New("empty merchant")
	ErrEmptyCategory = errors.New("empty category")
)

// IsValid returns true if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	default:
		return false
	}
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes the date as an ISO calendar date string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts a plain calendar date or a full RFC 3339 timestamp.
// Only the calendar date is retained; there is no time-zone normalization.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return ErrInvalidDate
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return ErrInvalidDate
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
