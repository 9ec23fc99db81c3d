package services

import (
	"time"

	"gorm.io/gorm"
)

// Options holds the lifecycle knobs and collaborators for New.
type Options struct {
	Publisher Publisher
	Locker    Locker
	Attempts  AttemptStore

	SessionTTL     time.Duration
	CallCooldown   time.Duration
	CallStaleAfter time.Duration
	PublicURL      string
	JWTSecret      string
	JWTTTL         time.Duration

	// Now overrides the clock used by sessions and calls.
	Now func() time.Time
}

// Registry wires every service onto one database.
type Registry struct {
	Tables   *TableService
	Sessions *SessionService
	Calls    *CallService
	Gate     *CallGate
	Auth     *AuthService
}

func New(db *gorm.DB, opts Options) *Registry {
	tables := NewTableService(db, opts.Publisher, opts.PublicURL)
	sessions := NewSessionService(db, tables, opts.SessionTTL)
	calls := NewCallService(db, opts.Publisher, opts.Locker)
	if opts.CallCooldown > 0 {
		calls.Cooldown = opts.CallCooldown
	}
	if opts.CallStaleAfter > 0 {
		calls.StaleAfter = opts.CallStaleAfter
	}
	if opts.Now != nil {
		sessions.Now = opts.Now
		calls.Now = opts.Now
	}

	return &Registry{
		Tables:   tables,
		Sessions: sessions,
		Calls:    calls,
		Gate:     NewCallGate(sessions, tables, calls),
		Auth:     NewAuthService(db, opts.Attempts, opts.JWTSecret, opts.JWTTTL),
	}
}
