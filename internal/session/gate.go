// Package session reconciles a verified external identity with the internal
// account record and memoizes the result for the lifetime of a session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/pkg/identity"
	"garment-tracker/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// AccountFinder is the read side of the account store the gate depends on.
type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

type entry struct {
	email      string
	account    *model.Account
	resolvedAt time.Time
}

// Gate holds resolved sessions. It never creates accounts.
type Gate struct {
	accounts AccountFinder
	maxAge   time.Duration
	log      logger.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
	inflight singleflight.Group
}

func NewGate(accounts AccountFinder, maxAge time.Duration, log logger.Logger) *Gate {
	return &Gate{
		accounts: accounts,
		maxAge:   maxAge,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// NewSessionID mints an opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ResolveSession binds sessionID to the account registered for id.
// Re-resolving a session for the same identity returns the cached account
// without touching the store. Concurrent resolutions of one identity share a
// single lookup. When the store cannot be reached the session is dropped and
// the error satisfies both apperror.ErrNoSession and apperror.ErrStoreUnavailable.
func (g *Gate) ResolveSession(ctx context.Context, sessionID string, id identity.Identity) (*model.Account, error) {
	if sessionID == "" {
		return nil, apperror.Invalid("session id is empty")
	}
	email := identity.NormalizeEmail(id.Email)
	if email == "" {
		return nil, apperror.Invalid("identity has no email")
	}

	if cached, ok := g.lookup(sessionID); ok && cached.email == email {
		return cached.account, nil
	}

	// shared by every caller of this email; detached from any single caller's cancellation
	lookupCtx := context.WithoutCancel(ctx)
	v, err, shared := g.inflight.Do(email, func() (interface{}, error) {
		return g.accounts.FindByEmail(lookupCtx, email)
	})
	if err != nil {
		g.Logout(sessionID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrAccountNotFound
		}
		g.log.Warn("session resolution failed, treating as unauthenticated",
			logger.String("email", email), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", apperror.ErrNoSession, err)
	}

	account := v.(*model.Account).Clone()
	g.store(sessionID, email, account)
	g.log.Debug("session resolved",
		logger.String("account_id", account.ID.String()),
		logger.String("role", string(account.Role)),
		logger.Bool("shared", shared))
	return account.Clone(), nil
}

// CurrentAccount returns the cached account for sessionID without a store round trip.
func (g *Gate) CurrentAccount(sessionID string) (*model.Account, bool) {
	cached, ok := g.lookup(sessionID)
	if !ok {
		return nil, false
	}
	return cached.account, true
}

// Logout forgets the session.
func (g *Gate) Logout(sessionID string) {
	g.mu.Lock()
	delete(g.sessions, sessionID)
	g.mu.Unlock()
}

// AccountChanged replaces the cached copy in every session bound to the
// account after the store confirmed a change (e.g. suspension), so the next
// gated call sees it immediately.
func (g *Gate) AccountChanged(account *model.Account) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.sessions {
		if e.account.ID == account.ID {
			e.account = account.Clone()
		}
	}
}

// Sessions returns the number of live sessions.
func (g *Gate) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// lookup returns a snapshot of the entry with a detached account.
func (g *Gate) lookup(sessionID string) (entry, bool) {
	g.mu.RLock()
	e, ok := g.sessions[sessionID]
	var snapshot entry
	expired := false
	if ok {
		snapshot = entry{email: e.email, account: e.account.Clone(), resolvedAt: e.resolvedAt}
		expired = g.expired(e)
	}
	g.mu.RUnlock()

	if !ok {
		return entry{}, false
	}
	if expired {
		g.Logout(sessionID)
		return entry{}, false
	}
	return snapshot, true
}

func (g *Gate) store(sessionID, email string, account *model.Account) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, e := range g.sessions {
		if g.expired(e) {
			delete(g.sessions, id)
		}
	}
	g.sessions[sessionID] = &entry{email: email, account: account, resolvedAt: g.now()}
}

func (g *Gate) expired(e *entry) bool {
	return g.maxAge > 0 && g.now().Sub(e.resolvedAt) > g.maxAge
}
