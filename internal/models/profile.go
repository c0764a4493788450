package models

import "time"

// Profile is a named bandwidth/time-limit plan with an associated price.
// Price is in integer minor-currency units. ValidityPeriod is in hours and
// drives the expiry timestamp computed at voucher creation.
type Profile struct {
	Name           string
	RateLimit      string
	Description    string
	Price          int64
	TimeLimit      string
	DataLimit      string
	ValidityPeriod int
	UptimeLimit    string
	CreatedAt      time.Time
}
