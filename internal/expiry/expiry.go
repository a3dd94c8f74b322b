// Package expiry classifies a document's expiration date relative to now.
//
// The classification is a pure function of its inputs and is recomputed on
// every read; it is never stored.
package expiry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cardocs/internal/model"
)

// DefaultWindowDays is how many days before expiration a document counts as expiring soon.
const DefaultWindowDays = 30

// ErrInvalidDate is returned when the expiration date cannot be parsed.
var ErrInvalidDate = errors.New("invalid expiration date")

// Status is the display state of a document.
type Status string

const (
	StatusValid        Status = "valid"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	// StatusUnknown is used by callers that render a record whose stored date does not parse.
	StatusUnknown Status = "unknown"
)

// Classification is the result of classifying one expiration date.
// RemainingDays is negative for expired documents.
type Classification struct {
	Status        Status `json:"status"`
	RemainingDays int    `json:"remaining_days"`
}

// Classifier holds the policy knobs of the classification.
//
// A document that expires today has zero remaining days. Such a document is
// neither in the future window nor in the past, and by default it falls
// through to StatusValid. That is probably a defect, but it is the
// established behaviour. TodayIsExpiring switches it to StatusExpiringSoon.
type Classifier struct {
	WindowDays      int
	TodayIsExpiring bool
	Location        *time.Location
	Now             func() time.Time
}

// New returns a Classifier with the default window, UTC dates and the wall clock.
func New() *Classifier {
	return &Classifier{
		WindowDays: DefaultWindowDays,
		Location:   time.UTC,
		Now:        time.Now,
	}
}

// RemainingDays returns ceil((expiration - now) / 24h) with the expiration
// date taken at midnight in loc.
func RemainingDays(expiration model.Date, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	diff := expiration.In(loc).Sub(now)
	days := math.Ceil(diff.Hours() / 24)
	if days == 0 {
		// ceil of a small negative fraction yields -0
		return 0
	}
	return int(days)
}

// Classify classifies expiration against the classifier's clock.
func (c *Classifier) Classify(expiration model.Date) Classification {
	return c.ClassifyAt(expiration, c.now())
}

// ClassifyAt classifies expiration against now.
func (c *Classifier) ClassifyAt(expiration model.Date, now time.Time) Classification {
	remaining := RemainingDays(expiration, now, c.Location)
	window := c.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}

	switch {
	case remaining < 0:
		return Classification{Status: StatusExpired, RemainingDays: remaining}
	case remaining == 0 && c.TodayIsExpiring:
		return Classification{Status: StatusExpiringSoon, RemainingDays: 0}
	case remaining > 0 && remaining <= window:
		return Classification{Status: StatusExpiringSoon, RemainingDays: remaining}
	default:
		return Classification{Status: StatusValid, RemainingDays: remaining}
	}
}

// ClassifyString parses a YYYY-MM-DD date and classifies it against the classifier's clock.
func (c *Classifier) ClassifyString(date string) (Classification, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	return c.Classify(d), nil
}

// ClassifyDocument classifies a stored record. A record without a usable date
// reports ErrInvalidDate instead of silently looking valid.
func (c *Classifier) ClassifyDocument(doc model.Document) (Classification, error) {
	if doc.Date.IsZero() {
		return Classification{Status: StatusUnknown}, fmt.Errorf("%w: document %s has no date", ErrInvalidDate, doc.ID)
	}
	return c.Classify(doc.Date), nil
}

func (c *Classifier) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
