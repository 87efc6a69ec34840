package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/attaboy/playerdata/internal/account"
	"github.com/attaboy/playerdata/internal/dependencies/mocks"
	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/ledger"
	"github.com/attaboy/playerdata/internal/multiplier"
	"github.com/attaboy/playerdata/internal/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ledger.Persister       = (*Memory)(nil)
	_ session.Loader         = (*Memory)(nil)
	_ multiplier.BoostSource = (*Memory)(nil)
	_ ledger.Persister       = (*Postgres)(nil)
	_ session.Loader         = (*Postgres)(nil)
	_ multiplier.BoostSource = (*Postgres)(nil)
)

func newMemory(t *testing.T) (*Memory, uuid.UUID) {
	t.Helper()
	m := NewMemory(mocks.NewMockClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	id := uuid.New()
	_, err := m.UpsertIdentity(context.Background(), domain.Identity{PlayerID: id, EffectiveName: "Alex"})
	require.NoError(t, err)
	return m, id
}

func TestMemory_UpsertIdentity(t *testing.T) {
	m, id := newMemory(t)
	ctx := context.Background()

	p, err := m.LoadPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alex", p.EffectiveName)
	assert.Zero(t, p.Coins)

	m.Seed(domain.PlayerData{Identity: p.Identity, Coins: 40})
	p, err = m.UpsertIdentity(ctx, domain.Identity{PlayerID: id, EffectiveName: "Alex", CustomName: "Ace"})
	require.NoError(t, err)
	assert.Equal(t, "Ace", p.DisplayName())
	assert.Equal(t, int64(40), p.Coins, "identity upsert keeps balances")

	_, err = m.UpsertIdentity(ctx, domain.Identity{PlayerID: id})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
	_, err = m.UpsertIdentity(ctx, domain.Identity{EffectiveName: "x"})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
}

func TestMemory_LoadMissing(t *testing.T) {
	m := NewMemory(nil)
	_, err := m.LoadPlayer(context.Background(), uuid.New())
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestMemory_PersistCompareAndSet(t *testing.T) {
	m, id := newMemory(t)
	ctx := context.Background()

	change := domain.BalanceChange{PlayerID: id, Currency: domain.Stars, Kind: domain.KindIncrease, Previous: 0, NewBalance: 7, Applied: 7}
	require.NoError(t, m.Persist(ctx, change))

	err := m.Persist(ctx, change)
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount), "previous no longer matches")

	change.PlayerID = uuid.New()
	err = m.Persist(ctx, change)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	p, err := m.LoadPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Stars)
	assert.Equal(t, int64(0), p.Coins)
}

func TestMemory_Outbox(t *testing.T) {
	m, id := newMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Persist(ctx, domain.BalanceChange{PlayerID: id, Currency: domain.Coins, Previous: 0, NewBalance: 3}))

	events, err := m.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventIdentityUpdated, events[0].EventType)
	assert.Equal(t, domain.EventBalanceChanged, events[1].EventType)
	assert.Less(t, events[0].SeqID, events[1].SeqID)

	var change domain.BalanceChange
	require.NoError(t, json.Unmarshal(events[1].Payload, &change))
	assert.Equal(t, int64(3), change.NewBalance)

	limited, err := m.FetchUnpublished(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, m.MarkPublished(ctx, []int64{events[0].SeqID}))
	rest, err := m.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, events[1].SeqID, rest[0].SeqID)
}

func TestMemory_ListActive(t *testing.T) {
	m := NewMemory(nil)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	m.AddBoost(multiplier.Boost{Currency: domain.Coins, Factor: decimal.NewFromInt(2), StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)})
	m.AddBoost(multiplier.Boost{Currency: domain.Coins, Factor: decimal.NewFromInt(3), StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)})

	active, err := m.ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Factor.Equal(decimal.NewFromInt(2)))
}

// An account over the memory store commits only what the store accepted.
func TestMemory_AccountRoundTrip(t *testing.T) {
	m, id := newMemory(t)
	ctx := context.Background()
	reg := session.NewRegistry(m, account.Options{Persister: m})

	a, err := reg.Get(ctx, id)
	require.NoError(t, err)

	_, err = a.Credit(ctx, domain.Coins, ledger.NewCredit(100, "win"))
	require.NoError(t, err)

	m.FailWith(errors.New("disk full"))
	_, err = a.Withdraw(ctx, domain.Coins, ledger.NewWithdraw(30))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodePersistenceFailure))
	assert.Equal(t, int64(100), a.Coins())

	m.FailWith(nil)
	_, err = a.Withdraw(ctx, domain.Coins, ledger.NewWithdraw(30))
	require.NoError(t, err)

	p, err := m.LoadPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(70), p.Coins)
	assert.Equal(t, a.Coins(), p.Coins)
}

// A second writer moving the durable balance makes the loaded account stale.
func TestMemory_ConcurrentWriterIsStale(t *testing.T) {
	m, id := newMemory(t)
	ctx := context.Background()
	reg := session.NewRegistry(m, account.Options{Persister: m})

	a, err := reg.Get(ctx, id)
	require.NoError(t, err)

	p, err := m.LoadPlayer(ctx, id)
	require.NoError(t, err)
	p.Coins = 500
	m.Seed(p)

	_, err = a.Increase(ctx, domain.Coins, 1)
	assert.True(t, domain.HasCode(err, domain.CodeStaleAccount))

	fresh, err := reg.Refresh(ctx, id)
	require.NoError(t, err)
	bal, err := fresh.Increase(ctx, domain.Coins, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(501), bal)
}
