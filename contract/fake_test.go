package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var player = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func newChain() *FakeChain {
	return NewFakeChain(
		BossTuple("Elon", "QmE", 100, 100, 20),
		CharacterTuple(0, "Aang", "QmA", 100, 100, 10),
		CharacterTuple(1, "Zuko", "QmZ", 200, 200, 40),
	)
}

func TestFakeChain_MintAndAssign(t *testing.T) {
	ctx := context.Background()
	chain := newChain()
	h := chain.Handle(player)

	got, err := h.HasAvatar(ctx)
	require.NoError(t, err)
	assert.True(t, NoAvatar(got))

	_, err = h.MintAvatar(ctx, 5)
	require.ErrorContains(t, err, "execution reverted")

	tx, err := h.MintAvatar(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), chain.LastTx())

	sink := make(chan *CharacterAssigned, 1)
	sub, err := h.WatchCharacterAssigned(sink)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.Listeners())

	assert.Equal(t, 1, chain.Assign(player, 7, 1))
	ev := <-sink
	assert.Equal(t, player, ev.Sender)
	assert.Equal(t, 1, ev.Index())

	got, err = h.HasAvatar(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Zuko", got["name"])

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, chain.Listeners())
	assert.Equal(t, 2, chain.Calls(MethodMintAvatar))
}

func TestFakeChain_Confirm(t *testing.T) {
	chain := newChain()
	h := chain.Handle(player)
	tx, err := h.AttackBoss(context.Background())
	require.NoError(t, err)

	t.Run("waits for mine", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, h.Confirm(ctx, tx), context.DeadlineExceeded)
	})
	t.Run("reverted", func(t *testing.T) {
		chain.Mine(tx.Hash(), ErrReverted)
		assert.ErrorIs(t, h.Confirm(context.Background(), tx), ErrReverted)
	})
	t.Run("auto confirm", func(t *testing.T) {
		chain.AutoConfirm = true
		assert.NoError(t, h.Confirm(context.Background(), tx))
	})
}

func TestFakeChain_FailNext(t *testing.T) {
	chain := newChain()
	h := chain.Handle(player)
	boom := errors.New("rpc down")
	chain.FailNext(MethodGetBoss, boom)

	_, err := h.GetBoss(context.Background())
	assert.ErrorIs(t, err, boom)
	boss, err := h.GetBoss(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Elon", boss["name"])
}
