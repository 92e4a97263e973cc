// Package security implements the login lockout policy: three consecutive
// failed attempts lock an email out for sixty seconds. Counters live in
// Redis when a client is available so the lockout holds across instances;
// without Redis they degrade to the local state file.
package security

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omraut/carbon-terminal/internal/localstore"
)

const (
	// MaxAttempts failed logins in a row trip the lockout.
	MaxAttempts = 3
	// LockoutWindow is how long the gate stays shut once tripped.
	LockoutWindow = 60 * time.Second

	redisKeyPrefix = "vitals:"
	redisTTL       = 10 * time.Minute
)

// Vitals is the per-email attempt state. LockedUntil is unix milliseconds,
// zero when not locked.
type Vitals struct {
	Attempts    int   `json:"attempts"`
	LockedUntil int64 `json:"locked_until"`
}

// VitalsStore tracks failed-attempt counters. A nil Redis client is allowed;
// the store then works purely off the local file.
type VitalsStore struct {
	rdb   *redis.Client
	local *localstore.Store
	now   func() time.Time
}

func NewVitalsStore(rdb *redis.Client, local *localstore.Store) *VitalsStore {
	return &VitalsStore{rdb: rdb, local: local, now: time.Now}
}

// get reads attempt state. A Redis transport error mid-flight drops to the
// local file, so counters keep accumulating through an outage and the
// lockout still trips; only a clean miss (key absent) short-circuits.
func (s *VitalsStore) get(ctx context.Context, email string) Vitals {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, redisKeyPrefix+email).Bytes()
		switch {
		case err == nil:
			var v Vitals
			if json.Unmarshal(raw, &v) == nil {
				return v
			}
			return Vitals{}
		case errors.Is(err, redis.Nil):
			return Vitals{}
		}
	}
	all := map[string]Vitals{}
	_, _ = s.local.Get(localstore.KeyVitals, &all)
	return all[email]
}

func (s *VitalsStore) put(ctx context.Context, email string, v Vitals) {
	if s.rdb != nil {
		raw, _ := json.Marshal(v)
		if s.rdb.Set(ctx, redisKeyPrefix+email, raw, redisTTL).Err() == nil {
			return
		}
	}
	all := map[string]Vitals{}
	_, _ = s.local.Get(localstore.KeyVitals, &all)
	all[email] = v
	_ = s.local.Put(localstore.KeyVitals, all)
}

// Locked reports whether email is currently locked out and until when.
func (s *VitalsStore) Locked(ctx context.Context, email string) (bool, time.Time) {
	v := s.get(ctx, email)
	if v.LockedUntil == 0 {
		return false, time.Time{}
	}
	until := time.UnixMilli(v.LockedUntil).UTC()
	if s.now().Before(until) {
		return true, until
	}
	return false, time.Time{}
}

// RecordFailure bumps the counter for email and arms the lockout on the
// third consecutive failure. It returns the updated state.
func (s *VitalsStore) RecordFailure(ctx context.Context, email string) Vitals {
	v := s.get(ctx, email)
	// An expired lockout starts a fresh count; otherwise one failure after
	// the window would re-arm the gate immediately.
	if v.LockedUntil != 0 && !s.now().Before(time.UnixMilli(v.LockedUntil)) {
		v = Vitals{}
	}
	v.Attempts++
	if v.Attempts >= MaxAttempts {
		v.LockedUntil = s.now().Add(LockoutWindow).UnixMilli()
	}
	s.put(ctx, email, v)
	return v
}

// Reset clears the counter after a successful login.
func (s *VitalsStore) Reset(ctx context.Context, email string) {
	s.put(ctx, email, Vitals{})
}
