package device

import (
	"context"
	"strconv"

	"github.com/go-routeros/routeros/v3"

	"github.com/dkarlovs/voucherd/internal/logging"
)

// RouterOS talks to a MikroTik hotspot over the RouterOS API. A fresh
// connection is dialed per call and closed before returning; the device
// tolerates that poorly under high call rates but it keeps every call
// independent of connection state.
//
// Calls carry no timeout of their own: a hung device call stalls the
// calling worker's current iteration until the transport gives up.
type RouterOS struct {
	addr     string
	username string
	password string
	log      logging.Logger
}

func NewRouterOS(addr, username, password string, log logging.Logger) *RouterOS {
	return &RouterOS{addr: addr, username: username, password: password, log: log}
}

func (g *RouterOS) connect() (*routeros.Client, error) {
	return routeros.Dial(g.addr, g.username, g.password)
}

func (g *RouterOS) run(ctx context.Context, sentence ...string) (*routeros.Reply, bool) {
	c, err := g.connect()
	if err != nil {
		g.log.Error(ctx, "device connection failed", "addr", g.addr, "error", err)
		return nil, false
	}
	defer c.Close()

	r, err := c.Run(sentence...)
	if err != nil {
		g.log.Error(ctx, "device command failed", "command", sentence[0], "error", err)
		return nil, false
	}
	return r, true
}

func (g *RouterOS) ListProfiles(ctx context.Context) []ProfileEntry {
	r, ok := g.run(ctx, "/ip/hotspot/user/profile/print")
	if !ok {
		return nil
	}
	profiles := make([]ProfileEntry, 0, len(r.Re))
	for _, re := range r.Re {
		profiles = append(profiles, ProfileEntry{
			Name:           re.Map["name"],
			RateLimit:      re.Map["rate-limit"],
			SessionTimeout: re.Map["session-timeout"],
		})
	}
	return profiles
}

func (g *RouterOS) ListAllUsers(ctx context.Context) []UserEntry {
	r, ok := g.run(ctx, "/ip/hotspot/user/print")
	if !ok {
		return nil
	}
	users := make([]UserEntry, 0, len(r.Re))
	for _, re := range r.Re {
		users = append(users, userEntryFrom(re.Map))
	}
	return users
}

func (g *RouterOS) ListActiveSessions(ctx context.Context) []ActiveSession {
	r, ok := g.run(ctx, "/ip/hotspot/active/print")
	if !ok {
		return nil
	}
	sessions := make([]ActiveSession, 0, len(r.Re))
	for _, re := range r.Re {
		sessions = append(sessions, activeSessionFrom(re.Map))
	}
	return sessions
}

func (g *RouterOS) GetUserUsage(ctx context.Context, username string) *UserUsage {
	r, ok := g.run(ctx, "/ip/hotspot/user/print", "?name="+username)
	if !ok || len(r.Re) == 0 {
		return nil
	}
	usage := usageFrom(r.Re[0].Map)
	return &usage
}

func (g *RouterOS) RemoveActiveSession(ctx context.Context, username string) bool {
	r, ok := g.run(ctx, "/ip/hotspot/active/print", "?user="+username)
	if !ok || len(r.Re) == 0 {
		return false
	}
	id := r.Re[0].Map[".id"]
	if id == "" {
		return false
	}
	if _, ok := g.run(ctx, "/ip/hotspot/active/remove", "=.id="+id); !ok {
		return false
	}
	g.log.Info(ctx, "removed active session", "username", username)
	return true
}

func (g *RouterOS) CreateVoucherAccount(ctx context.Context, req CreateAccountRequest) bool {
	_, ok := g.run(ctx, "/ip/hotspot/user/add",
		"=name="+req.Code,
		"=password="+req.Password,
		"=profile="+req.Profile,
		"=comment="+req.Comment,
		"=limit-uptime="+req.UptimeLimit,
		"=disabled=no",
	)
	if ok {
		g.log.Info(ctx, "voucher account created on device",
			"code", req.Code, "profile", req.Profile, "limit", req.UptimeLimit)
	}
	return ok
}

func userEntryFrom(m map[string]string) UserEntry {
	return UserEntry{
		Name:        m["name"],
		Profile:     m["profile"],
		UptimeLimit: m["limit-uptime"],
		Comment:     m["comment"],
	}
}

func activeSessionFrom(m map[string]string) ActiveSession {
	return ActiveSession{
		User:     m["user"],
		Profile:  m["profile"],
		Uptime:   m["uptime"],
		Server:   m["server"],
		BytesIn:  parseBytes(m["bytes-in"]),
		BytesOut: parseBytes(m["bytes-out"]),
	}
}

func usageFrom(m map[string]string) UserUsage {
	return UserUsage{
		BytesIn:     parseBytes(m["bytes-in"]),
		BytesOut:    parseBytes(m["bytes-out"]),
		Uptime:      m["uptime"],
		LimitUptime: m["limit-uptime"],
		Disabled:    m["disabled"] == "yes" || m["disabled"] == "true",
		Comment:     m["comment"],
	}
}

// parseBytes reads a device-reported byte counter; the device omits the
// field for idle accounts, which counts as zero.
func parseBytes(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
