package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko-arena/sdk"
)

func TestEventSync_SingleListenerSet(t *testing.T) {
	chain := newChain()
	es := NewEventSync(nil)
	acct := sdk.NewAccount(alice)
	got := make(chan Delivery, 16)
	deliver := func(d Delivery) { got <- d }

	for gen := uint64(1); gen <= 5; gen++ {
		require.NoError(t, es.Attach(newHandle(gen, acct, chain.Handle(alice)), deliver))
		assert.Equal(t, 2, es.Active())
		assert.Equal(t, 2, chain.Listeners())
	}

	chain.Resolve(bob, 50, 10)
	select {
	case d := <-got:
		assert.Equal(t, uint64(5), d.Gen)
		require.NotNil(t, d.Attack)
		assert.Equal(t, int64(50), d.Attack.BossHP())
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}

	es.Detach()
	assert.Equal(t, 0, es.Active())
	assert.Equal(t, 0, chain.Listeners())
	assert.Equal(t, 0, chain.Resolve(bob, 40, 10))
}

func TestEventSync_AttachStaleHandle(t *testing.T) {
	chain := newChain()
	es := NewEventSync(nil)
	acct := sdk.NewAccount(alice)

	live := newHandle(1, acct, chain.Handle(alice))
	require.NoError(t, es.Attach(live, func(Delivery) {}))

	stale := newHandle(2, acct, chain.Handle(alice))
	stale.invalidate()
	require.ErrorIs(t, es.Attach(stale, func(Delivery) {}), ErrStaleHandle)

	// the previous set is gone even though the new one failed
	assert.Equal(t, 0, es.Active())
	assert.Equal(t, 0, chain.Listeners())
}
