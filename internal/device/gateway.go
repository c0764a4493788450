// Package device abstracts the hotspot device's query/command surface.
// Implementations catch transport errors at this boundary and degrade to
// empty results or success=false; callers treat an empty read as "no data
// this cycle", never as fatal.
package device

import "context"

// ProfileEntry is a hotspot user profile as reported by the device.
type ProfileEntry struct {
	Name           string
	RateLimit      string
	SessionTimeout string
}

// UserEntry is one account from the device's full user list.
type UserEntry struct {
	Name        string
	Profile     string
	UptimeLimit string
	Comment     string
}

// ActiveSession is a currently connected session.
type ActiveSession struct {
	User     string
	Profile  string
	Uptime   string
	Server   string
	BytesIn  int64
	BytesOut int64
}

// UserUsage is the per-account usage snapshot.
type UserUsage struct {
	BytesIn     int64
	BytesOut    int64
	Uptime      string
	LimitUptime string
	Disabled    bool
	Comment     string
}

// CreateAccountRequest describes a voucher account to provision on the
// device. Password is the final password string, empty for blank.
type CreateAccountRequest struct {
	Profile     string
	Code        string
	Password    string
	Comment     string
	UptimeLimit string
}

// Gateway is the capability set the reconciliation core consumes.
type Gateway interface {
	// ListProfiles returns all hotspot user profiles.
	ListProfiles(ctx context.Context) []ProfileEntry

	// ListAllUsers returns every account known to the device.
	ListAllUsers(ctx context.Context) []UserEntry

	// ListActiveSessions returns the currently connected sessions.
	ListActiveSessions(ctx context.Context) []ActiveSession

	// GetUserUsage returns the usage snapshot for one account, or nil if
	// the account is unknown or the device is unreachable.
	GetUserUsage(ctx context.Context, username string) *UserUsage

	// RemoveActiveSession kicks a connected session. Best-effort.
	RemoveActiveSession(ctx context.Context, username string) bool

	// CreateVoucherAccount provisions a voucher account on the device.
	CreateVoucherAccount(ctx context.Context, req CreateAccountRequest) bool
}
