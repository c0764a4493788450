// Package models defines the typed records persisted by the voucher
// service. All loosely-typed store rows are mapped into these structs at
// the repository boundary; nothing above that layer inspects raw rows.
package models

import "time"

// PasswordMode describes how a voucher's password was provisioned on the
// device: left blank, equal to the voucher code, or randomly generated.
type PasswordMode string

const (
	PasswordBlank  PasswordMode = "blank"
	PasswordSame   PasswordMode = "same"
	PasswordCustom PasswordMode = "custom"
)

// Voucher is a single-use prepaid access code tied to a bandwidth profile.
//
// Invariants: ActivatedAt is non-nil iff Used is true; Expired implies Used.
type Voucher struct {
	Code            string
	ProfileName     string
	CreatedAt       time.Time
	ActivatedAt     *time.Time
	Used            bool
	CustomerName    string
	CustomerContact string
	BytesUsed       int64
	SessionTime     int64
	ExpiryTime      *time.Time
	Expired         bool
	UptimeLimit     string
	PasswordMode    PasswordMode
	BatchID         string
}
