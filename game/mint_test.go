package game

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

func zuko() *contract.AvatarInstance {
	return &contract.AvatarInstance{Index: 1, Name: "Zuko", ImageURI: "QmZuko", HP: 200, MaxHP: 200, AttackDamage: 40}
}

func TestMintFlow_Begin(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		hasAvatar bool
		want      error
	}{
		{"first", 0, false, nil},
		{"last", 2, false, nil},
		{"negative", -1, false, ErrTemplateOutOfRange},
		{"past end", 3, false, ErrTemplateOutOfRange},
		{"already owned", 1, true, ErrAvatarExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMintFlow(nil)
			err := m.Begin(tt.index, 3, tt.hasAvatar)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.Equal(t, MintIdle, m.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MintMinting, m.State())
		})
	}
}

func TestMintFlow_InFlight(t *testing.T) {
	m := NewMintFlow(nil)
	require.NoError(t, m.Begin(0, 3, false))
	assert.ErrorIs(t, m.Begin(1, 3, false), ErrMintInFlight)
}

func TestMintFlow_EitherOrder(t *testing.T) {
	acct := sdk.NewAccount(alice)
	ev := contract.NewCharacterAssigned(alice, 7, 1)

	t.Run("receipt first", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		m.Submitted(common.HexToHash("0x01"))

		assert.False(t, m.OnConfirmed(nil))
		assert.Equal(t, MintMinting, m.State())
		require.True(t, m.OnAssigned(ev, acct))
		assert.True(t, m.OnResolved(zuko(), nil))
		assert.Equal(t, MintMinted, m.State())
		assert.Equal(t, "Zuko", m.Avatar().Name)
	})
	t.Run("event first", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))

		require.True(t, m.OnAssigned(ev, acct))
		assert.False(t, m.OnResolved(zuko(), nil))
		assert.Equal(t, MintMinting, m.State())
		assert.Nil(t, m.Avatar())
		assert.True(t, m.OnConfirmed(nil))
		assert.Equal(t, MintMinted, m.State())
	})
}

func TestMintFlow_SingleResolve(t *testing.T) {
	m := NewMintFlow(nil)
	require.NoError(t, m.Begin(1, 3, false))
	acct := sdk.NewAccount(alice)

	assert.False(t, m.OnAssigned(contract.NewCharacterAssigned(bob, 8, 1), acct), "other sender")
	assert.True(t, m.OnAssigned(contract.NewCharacterAssigned(alice, 7, 1), acct))
	assert.False(t, m.OnAssigned(contract.NewCharacterAssigned(alice, 7, 1), acct), "duplicate")
}

func TestMintFlow_SenderCaseInsensitive(t *testing.T) {
	m := NewMintFlow(nil)
	require.NoError(t, m.Begin(0, 3, false))
	acct, ok := sdk.ParseAccount("0x00000000000000000000000000000000000a11ce")
	require.True(t, ok)
	assert.True(t, m.OnAssigned(contract.NewCharacterAssigned(alice, 1, 0), acct))
}

func TestMintFlow_Failures(t *testing.T) {
	acct := sdk.NewAccount(alice)
	ev := contract.NewCharacterAssigned(alice, 7, 1)

	t.Run("revert after event", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		require.True(t, m.OnAssigned(ev, acct))
		m.OnConfirmed(ErrTransactionReverted)
		assert.Equal(t, MintFailed, m.State())
		assert.False(t, m.OnResolved(zuko(), nil))
		assert.Equal(t, MintFailed, m.State())
		assert.ErrorIs(t, m.Err(), ErrTransactionReverted)
	})
	t.Run("revert before event", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		m.OnConfirmed(ErrTransactionReverted)
		assert.False(t, m.OnAssigned(ev, acct))
		assert.Equal(t, MintFailed, m.State())
	})
	t.Run("submission error", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		m.OnSubmitFailed(ErrUserRejected)
		assert.Equal(t, MintFailed, m.State())
		require.NoError(t, m.Begin(1, 3, false), "a failed mint can be retried")
	})
	t.Run("still no avatar", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		m.OnConfirmed(nil)
		require.True(t, m.OnAssigned(ev, acct))
		m.OnResolved(nil, nil)
		assert.Equal(t, MintFailed, m.State())
		assert.ErrorIs(t, m.Err(), ErrNoAvatar)
	})
	t.Run("resolve error", func(t *testing.T) {
		m := NewMintFlow(nil)
		require.NoError(t, m.Begin(1, 3, false))
		require.True(t, m.OnAssigned(ev, acct))
		m.OnResolved(nil, ErrMalformedContractData)
		assert.True(t, errors.Is(m.Err(), ErrMalformedContractData))
	})
}

func TestMintFlow_Reset(t *testing.T) {
	m := NewMintFlow(nil)
	require.NoError(t, m.Begin(1, 3, false))
	m.Reset()
	assert.Equal(t, MintIdle, m.State())
	assert.False(t, m.OnConfirmed(nil))
	assert.Equal(t, MintIdle, m.State())
}
