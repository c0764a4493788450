package models

import "time"

// UserRecord mirrors one device account in the all_users table. Exactly one
// row exists per device username; IsVoucher is true iff a Voucher with the
// same code exists.
type UserRecord struct {
	Username     string
	ProfileName  string
	CreatedAt    time.Time
	LastSeen     *time.Time
	Active       bool
	BytesUsed    int64
	UptimeLimit  string
	Expired      bool
	Comment      string
	PasswordMode PasswordMode
	IsVoucher    bool
}
