package game

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko-arena/sdk"
)

func TestAccountBinder_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("grants first account", func(t *testing.T) {
		wallet := sdk.NewFakeProvider(alice, bob)
		b := NewAccountBinder(wallet, nil)

		_, ok, err := b.CurrentAccount(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		acct, err := b.Connect(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdk.NewAccount(alice), acct)

		cur, ok, err := b.CurrentAccount(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, acct, cur)
	})
	t.Run("no provider", func(t *testing.T) {
		b := NewAccountBinder(nil, nil)
		_, err := b.Connect(ctx)
		assert.ErrorIs(t, err, ErrProviderMissing)
		_, _, err = b.CurrentAccount(ctx)
		assert.ErrorIs(t, err, ErrProviderMissing)
	})
	t.Run("empty wallet", func(t *testing.T) {
		_, err := NewAccountBinder(sdk.NewFakeProvider(), nil).Connect(ctx)
		assert.ErrorIs(t, err, ErrProviderMissing)
		assert.ErrorIs(t, err, sdk.ErrNoProvider)
	})
	t.Run("rejected", func(t *testing.T) {
		wallet := sdk.NewFakeProvider(alice)
		wallet.Reject = true
		_, err := NewAccountBinder(wallet, nil).Connect(ctx)
		assert.ErrorIs(t, err, ErrUserRejected)
	})
}

func TestAccountBinder_ValidateNetwork(t *testing.T) {
	ctx := context.Background()
	wallet := sdk.NewFakeProvider(alice)
	b := NewAccountBinder(wallet, nil)
	require.NoError(t, b.ValidateNetwork(ctx))

	wallet.Chain = big.NewInt(1)
	err := b.ValidateNetwork(ctx)
	require.ErrorIs(t, err, ErrNetworkMismatch)

	var mismatch *NetworkMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, int64(4), mismatch.Want.Int64())
	assert.Equal(t, int64(1), mismatch.Got.Int64())
}

type rpcError struct {
	code int
	msg  string
}

func (e rpcError) Error() string  { return e.msg }
func (e rpcError) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no provider", sdk.ErrNoProvider, ErrProviderMissing},
		{"rejected", sdk.ErrRejected, ErrUserRejected},
		{"receipt failure", errors.New("wrapped: " + "transaction reverted"), nil},
		{"reverted sentinel", contractReverted(), ErrTransactionReverted},
		{"estimate revert", errors.New("mintCharacterNFT: execution reverted: no template"), ErrTransactionReverted},
		{"malformed", contractMalformed(), ErrMalformedContractData},
		{"rpc revert code", rpcError{code: 3, msg: "gas required exceeds allowance"}, ErrTransactionReverted},
		{"rpc other code", rpcError{code: -32000, msg: "nonce too low"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.in)
			if tt.want == nil {
				assert.Equal(t, tt.in, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.in)
		})
	}
	assert.NoError(t, classify(nil))
}
