package store

import (
	"context"
	"sync"
	"time"

	"github.com/attaboy/playerdata/internal/dependencies/clock"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/google/uuid"
)

// Memory is an in-process player store with the same compare-and-set
// contract as Postgres. Events are kept in an outbox slice.
type Memory struct {
	clock clock.Clock

	mu      sync.Mutex
	players map[uuid.UUID]domain.PlayerData
	boosts  []multiplier.Boost
	events  []domain.OutboxRow
	seq     int64
	failErr error
}

// NewMemory creates an empty in-memory store.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{clock: clk, players: make(map[uuid.UUID]domain.PlayerData)}
}

// FailWith makes every following Persist return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Seed stores a player as-is, including balances.
func (m *Memory) Seed(p domain.PlayerData) {
	m.mu.Lock()
	m.players[p.PlayerID] = p
	m.mu.Unlock()
}

// AddBoost registers a boost for ListActive.
func (m *Memory) AddBoost(b multiplier.Boost) {
	m.mu.Lock()
	m.boosts = append(m.boosts, b)
	m.mu.Unlock()
}

func (m *Memory) LoadPlayer(_ context.Context, id uuid.UUID) (domain.PlayerData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return domain.PlayerData{}, domain.ErrNotFound("player", id.String())
	}
	return p, nil
}

func (m *Memory) UpsertIdentity(_ context.Context, identity domain.Identity) (domain.PlayerData, error) {
	if err := validateIdentity(identity); err != nil {
		return domain.PlayerData{}, err
	}
	if identity.LastRefresh.IsZero() {
		identity.LastRefresh = m.clock.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.players[identity.PlayerID]
	p.Identity = identity
	m.players[identity.PlayerID] = p
	m.appendEvent(domain.NewIdentityUpdatedEvent(identity))
	return p, nil
}

func (m *Memory) Persist(_ context.Context, change domain.BalanceChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}

	p, ok := m.players[change.PlayerID]
	if !ok {
		return domain.ErrNotFound("player", change.PlayerID.String())
	}
	if p.Balance(change.Currency) != change.Previous {
		return domain.ErrStaleAccount(change.PlayerID.String())
	}
	switch change.Currency {
	case domain.Coins:
		p.Coins = change.NewBalance
	case domain.Stars:
		p.Stars = change.NewBalance
	default:
		return domain.ErrInvalidArgument("unknown currency: " + string(change.Currency))
	}
	m.players[change.PlayerID] = p
	m.appendEvent(domain.NewBalanceChangedEvent(change))
	return nil
}

func (m *Memory) ListActive(_ context.Context, at time.Time) ([]multiplier.Boost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []multiplier.Boost
	for _, b := range m.boosts {
		if b.ActiveAt(at) {
			active = append(active, b)
		}
	}
	return active, nil
}

func (m *Memory) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(limit, len(m.events))
	out := make([]domain.OutboxRow, n)
	copy(out, m.events[:n])
	return out, nil
}

func (m *Memory) MarkPublished(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := m.events[:0]
	for _, e := range m.events {
		if _, ok := drop[e.SeqID]; !ok {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) appendEvent(d domain.OutboxDraft) {
	m.seq++
	m.events = append(m.events, domain.OutboxRow{SeqID: m.seq, OutboxDraft: d})
}
