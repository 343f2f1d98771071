package game

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

// BindFunc builds the remote contract surface for one account.
type BindFunc func(ctx context.Context, account sdk.Account) (contract.Handle, error)

// ContractHandle is a generation-tagged capability bound to exactly one
// account. Once invalidated every call fails with ErrStaleHandle.
type ContractHandle struct {
	gen     uint64
	account sdk.Account
	remote  contract.Handle
	stale   atomic.Bool
}

func newHandle(gen uint64, account sdk.Account, remote contract.Handle) *ContractHandle {
	return &ContractHandle{gen: gen, account: account, remote: remote}
}

func (h *ContractHandle) Generation() uint64   { return h.gen }
func (h *ContractHandle) Account() sdk.Account { return h.account }
func (h *ContractHandle) Stale() bool          { return h.stale.Load() }

func (h *ContractHandle) invalidate() { h.stale.Store(true) }

func (h *ContractHandle) check() error {
	if h == nil {
		return ErrNotBound
	}
	if h.stale.Load() {
		return ErrStaleHandle
	}
	return nil
}

func (h *ContractHandle) HasAvatar(ctx context.Context) (contract.Tuple, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.HasAvatar(ctx)
}

func (h *ContractHandle) ListTemplates(ctx context.Context) ([]contract.Tuple, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.ListTemplates(ctx)
}

func (h *ContractHandle) GetBoss(ctx context.Context) (contract.Tuple, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.GetBoss(ctx)
}

func (h *ContractHandle) MintAvatar(ctx context.Context, templateIndex int) (*types.Transaction, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.MintAvatar(ctx, templateIndex)
}

func (h *ContractHandle) AttackBoss(ctx context.Context) (*types.Transaction, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.AttackBoss(ctx)
}

// Confirm waits for tx even if the handle went stale meanwhile; the
// outcome is dropped later by generation.
func (h *ContractHandle) Confirm(ctx context.Context, tx *types.Transaction) error {
	if h == nil {
		return ErrNotBound
	}
	return h.remote.Confirm(ctx, tx)
}

func (h *ContractHandle) watchAssigned(sink chan<- *contract.CharacterAssigned) (event.Subscription, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.WatchCharacterAssigned(sink)
}

func (h *ContractHandle) watchAttacks(sink chan<- *contract.AttackResolved) (event.Subscription, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.remote.WatchAttackResolved(sink)
}
