package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grokini/tradebot/core"
)

func testStore() *Store {
	return NewStore(core.UserSettings{
		SlippageBps:         100,
		PriorityFeeLamports: 10000,
		Notifications:       true,
	})
}

func TestStore_GetOrCreate(t *testing.T) {
	store := testStore()

	first := store.Get(1)
	second := store.Get(1)
	require.Same(t, first, second)
	require.Equal(t, 1, store.Len())

	other := store.Get(2)
	require.NotSame(t, first, other)
	require.Equal(t, 2, store.Len())
}

func TestStore_NewSessionDefaults(t *testing.T) {
	session := testStore().Get(1)

	require.Equal(t, ModeIdle, session.InputMode())
	require.Nil(t, session.Signer())
	require.Nil(t, session.PendingTrade())
	require.Empty(t, session.AlertIDs())
	require.Equal(t, 100, session.Settings().SlippageBps)
}

func TestSession_PendingTradeOverwrites(t *testing.T) {
	session := testStore().Get(1)

	first := &core.PendingTrade{UserID: 1, Mint: "mintA", Direction: core.TradeBuy, CreatedAt: time.Now()}
	second := &core.PendingTrade{UserID: 1, Mint: "mintB", Direction: core.TradeSell, CreatedAt: time.Now()}

	session.SetPendingTrade(first)
	session.SetPendingTrade(second)

	got := session.PendingTrade()
	require.Equal(t, "mintB", got.Mint)
}

func TestSession_TakePendingTradeClears(t *testing.T) {
	session := testStore().Get(1)
	session.SetPendingTrade(&core.PendingTrade{UserID: 1, Mint: "mintA"})

	taken := session.TakePendingTrade()
	require.NotNil(t, taken)
	require.Nil(t, session.PendingTrade())
	require.Nil(t, session.TakePendingTrade())
}

func TestSession_ConsumeInputModeSingleShot(t *testing.T) {
	session := testStore().Get(1)
	session.SetInputMode(ModeAwaitingSecretKey)

	require.Equal(t, ModeAwaitingSecretKey, session.ConsumeInputMode())
	require.Equal(t, ModeIdle, session.ConsumeInputMode())
	require.Equal(t, ModeIdle, session.InputMode())
}

func TestSession_NewCommandSupersedesInputMode(t *testing.T) {
	session := testStore().Get(1)
	session.SetInputMode(ModeAwaitingPhrase)

	// A fresh command arms a different mode; the stale one is gone.
	session.SetInputMode(ModeAwaitingAlertTarget)
	require.Equal(t, ModeAwaitingAlertTarget, session.ConsumeInputMode())
}

func TestSession_AlertSet(t *testing.T) {
	session := testStore().Get(1)

	session.AddAlert(10)
	session.AddAlert(11)
	session.AddAlert(10)

	require.Equal(t, []int64{10, 11}, session.AlertIDs())
	require.True(t, session.HasAlert(10))

	session.RemoveAlert(10)
	require.False(t, session.HasAlert(10))
	require.Equal(t, []int64{11}, session.AlertIDs())
}

func TestSession_AlertDraftTakeClears(t *testing.T) {
	session := testStore().Get(1)

	_, ok := session.TakeAlertDraft()
	require.False(t, ok)

	session.SetAlertDraft(AlertDraft{Mint: "mint", Direction: core.AlertAbove})

	draft, ok := session.TakeAlertDraft()
	require.True(t, ok)
	require.Equal(t, "mint", draft.Mint)
	require.Equal(t, core.AlertAbove, draft.Direction)

	_, ok = session.TakeAlertDraft()
	require.False(t, ok)
}

func TestStore_ConcurrentUsersAreIsolated(t *testing.T) {
	store := testStore()

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 8; userID++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			session := store.Get(id)
			for i := 0; i < 100; i++ {
				session.SetPendingTrade(&core.PendingTrade{UserID: id, Mint: "mint"})
				session.SetInputMode(ModeAwaitingAlertTarget)
				session.AddAlert(int64(i))
				session.ConsumeInputMode()
			}
		}(userID)
	}
	wg.Wait()

	for userID := int64(1); userID <= 8; userID++ {
		session := store.Get(userID)
		require.Equal(t, userID, session.PendingTrade().UserID)
		require.Len(t, session.AlertIDs(), 100)
	}
}
