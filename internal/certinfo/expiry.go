package certinfo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Expiry thresholds in days
const (
	SixtyDays      = 60
	FortyFiveDays  = 45
	ThirtyDays     = 30
	MoreThanThirty = "more than 30"
)

const (
	day           = 24 * time.Hour
	secondsPerDay = int64(day / time.Second)
)

// Expiry buckets the remaining validity of a certificate
type Expiry struct {
	DaysRemaining  int      `json:"days_remaining"`
	OverSixty      bool     `json:"over_sixty"`
	UnderSixty     bool     `json:"under_sixty"`
	UnderFortyFive bool     `json:"under_forty_five"`
	UnderThirty    DaysLeft `json:"under_thirty"`
}

// DaysLeft is the display value of the 30 day bucket: the day count itself
// once 30 or fewer days remain, otherwise "more than 30".
type DaysLeft struct {
	days   int
	within bool
}

// Days returns the day count and true when 30 or fewer days remain
func (d DaysLeft) Days() (int, bool) {
	return d.days, d.within
}

func (d DaysLeft) String() string {
	if !d.within {
		return MoreThanThirty
	}
	return strconv.Itoa(d.days)
}

// MarshalJSON encodes the day count as a number and the sentinel as a string
func (d DaysLeft) MarshalJSON() ([]byte, error) {
	if !d.within {
		return json.Marshal(MoreThanThirty)
	}
	return json.Marshal(d.days)
}

// UnmarshalJSON accepts either form written by MarshalJSON
func (d *DaysLeft) UnmarshalJSON(data []byte) error {
	var days int
	if err := json.Unmarshal(data, &days); err == nil {
		*d = DaysLeft{days: days, within: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != MoreThanThirty {
		return fmt.Errorf("invalid days left value %q", s)
	}
	*d = DaysLeft{}
	return nil
}

// Classify computes the expiry buckets of notAfter as seen at now.
// DaysRemaining is floored and negative once the certificate has expired.
func Classify(notAfter, now time.Time) Expiry {
	days := DaysBetween(now, notAfter)
	return Expiry{
		DaysRemaining:  days,
		OverSixty:      days > SixtyDays,
		UnderSixty:     days < SixtyDays,
		UnderFortyFive: days < FortyFiveDays,
		UnderThirty:    DaysLeft{days: days, within: days <= ThirtyDays},
	}
}

// Expired reports whether the certificate is past its notAfter
func (e Expiry) Expired() bool {
	return e.DaysRemaining < 0
}

// DaysBetween returns the whole number of days from now until t, rounded
// towards negative infinity. It works on Unix seconds since time.Duration
// saturates at about 292 years and notAfter may be 9999-12-31.
func DaysBetween(now, t time.Time) int {
	secs := t.Unix() - now.Unix()
	if t.Nanosecond() < now.Nanosecond() {
		secs--
	}
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return int(days)
}
