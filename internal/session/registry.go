package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Loader reads a player's identity and stored balances.
type Loader interface {
	LoadPlayer(ctx context.Context, id uuid.UUID) (domain.PlayerData, error)
}

// Registry holds the accounts of currently connected players.
type Registry struct {
	loader Loader
	opts   account.Options
	clock  clock.Clock
	logger *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	accounts map[uuid.UUID]*account.PlayerAccount
	loading  map[uuid.UUID]*pendingLoad
}

// pendingLoad marks a load in flight. Unload cancels it so the load does not
// register an account after the player left.
type pendingLoad struct {
	cancelled bool
}

// NewRegistry creates a registry. opts are shared by every account it builds.
func NewRegistry(loader Loader, opts account.Options) *Registry {
	r := &Registry{
		loader:   loader,
		opts:     opts,
		clock:    opts.Clock,
		logger:   opts.Logger,
		accounts: make(map[uuid.UUID]*account.PlayerAccount),
		loading:  make(map[uuid.UUID]*pendingLoad),
	}
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Get returns the loaded account, loading it on first use. A superseded
// account is replaced by a fresh load. Concurrent loads of the same player
// share one call to the loader.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, error) {
	if a, ok := r.Peek(id); ok && !a.Stale() {
		return a, nil
	}

	v, err, _ := r.group.Do(id.String(), func() (interface{}, error) {
		if a, ok := r.Peek(id); ok && !a.Stale() {
			return a, nil
		}
		a, replaced, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if replaced != nil {
			r.logger.Info("stale account reloaded", "player_id", id.String())
		} else {
			r.logger.Debug("account loaded", "player_id", id.String())
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*account.PlayerAccount), nil
}

// Refresh reloads the player from the loader and swaps in a fresh account.
// The previous account is superseded, so in-flight holders of it get STALE_ACCOUNT.
func (r *Registry) Refresh(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, error) {
	v, err, _ := r.group.Do(id.String(), func() (interface{}, error) {
		a, old, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		r.logger.Info("account refreshed", "player_id", id.String(), "replaced", old != nil)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*account.PlayerAccount), nil
}

// load builds a fresh account and registers it in place of the current one,
// which is superseded and returned. If Unload ran while the loader was busy the
// new account is superseded instead of registered.
// Callers hold the singleflight key for id.
func (r *Registry) load(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, *account.PlayerAccount, error) {
	pending := &pendingLoad{}
	r.mu.Lock()
	r.loading[id] = pending
	r.mu.Unlock()

	a, err := r.build(ctx, id)

	r.mu.Lock()
	delete(r.loading, id)
	if err != nil {
		r.mu.Unlock()
		return nil, nil, err
	}
	if pending.cancelled {
		r.mu.Unlock()
		a.Supersede()
		r.logger.Debug("load finished after unload", "player_id", id.String())
		return a, nil, nil
	}
	old := r.accounts[id]
	r.accounts[id] = a
	r.mu.Unlock()

	if old != nil {
		old.Supersede()
	}
	return a, old, nil
}

// Unload removes the account, supersedes it and waits for its async mutations.
// A load still in flight is cancelled. It reports whether an account was
// loaded or loading.
func (r *Registry) Unload(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	a, ok := r.accounts[id]
	delete(r.accounts, id)
	pending := r.loading[id]
	if pending != nil {
		pending.cancelled = true
	}
	r.mu.Unlock()
	if !ok {
		return pending != nil, nil
	}

	a.Supersede()
	if err := a.Wait(ctx); err != nil {
		r.logger.Warn("unload: async work still running", "player_id", id.String(), "error", err)
		return true, fmt.Errorf("wait for account %s: %w", id, err)
	}
	r.logger.Info("account unloaded", "player_id", id.String())
	return true, nil
}

// Peek returns the loaded account without loading it.
func (r *Registry) Peek(id uuid.UUID) (*account.PlayerAccount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	return a, ok
}

// Len returns the number of loaded accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func (r *Registry) build(ctx context.Context, id uuid.UUID) (*account.PlayerAccount, error) {
	data, err := r.loader.LoadPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	data.PlayerID = id
	data.LastRefresh = r.clock.Now()
	return account.New(data, r.opts)
}
