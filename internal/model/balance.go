package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the calendar-day key format used for balance snapshots.
const DayLayout = "2006-01-02"

// DailyBalance is the balance of one token sampled on one UTC calendar day.
type DailyBalance struct {
	ID     int64           `json:"id"`
	Day    string          `json:"day"`
	Token  string          `json:"token"`
	Amount decimal.Decimal `json:"amount"`
}

// DayOf returns the UTC calendar day key of t.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// PreviousDay returns the calendar day immediately before day.
func PreviousDay(day string) (string, error) {
	d, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, -1).Format(DayLayout), nil
}
