package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// ErrReverted is returned by Confirm when a mined transaction failed.
var ErrReverted = errors.New("transaction reverted")

// Handle is the remote-call surface of the game contract as seen by one
// account.
type Handle interface {
	HasAvatar(ctx context.Context) (Tuple, error)
	ListTemplates(ctx context.Context) ([]Tuple, error)
	MintAvatar(ctx context.Context, templateIndex int) (*types.Transaction, error)
	AttackBoss(ctx context.Context) (*types.Transaction, error)
	GetBoss(ctx context.Context) (Tuple, error)

	// Confirm blocks until tx is mined. It returns nil on success and
	// ErrReverted when the receipt reports failure.
	Confirm(ctx context.Context, tx *types.Transaction) error

	WatchCharacterAssigned(sink chan<- *CharacterAssigned) (event.Subscription, error)
	WatchAttackResolved(sink chan<- *AttackResolved) (event.Subscription, error)
}

// Backend is what a Binding needs from an RPC client.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Binding is the go-ethereum implementation of Handle.
type Binding struct {
	address  common.Address
	contract *bind.BoundContract
	backend  Backend
	opts     *bind.TransactOpts
}

var _ Handle = (*Binding)(nil)

// NewBinding connects to an already deployed game contract. opts signs
// write calls and its From address is used as msg.sender for reads.
func NewBinding(address common.Address, backend Backend, opts *bind.TransactOpts) (*Binding, error) {
	if opts == nil {
		return nil, errors.New("binding requires transact options")
	}
	parsed, err := abi.JSON(strings.NewReader(GameABI))
	if err != nil {
		return nil, err
	}
	return &Binding{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		opts:     opts,
	}, nil
}

// Address returns the contract address.
func (b *Binding) Address() common.Address { return b.address }

// ---------- Reads ----------

func (b *Binding) HasAvatar(ctx context.Context) (Tuple, error) {
	out, err := b.call(ctx, MethodHasAvatar)
	if err != nil {
		return nil, err
	}
	return TupleOf(out)
}

func (b *Binding) ListTemplates(ctx context.Context) ([]Tuple, error) {
	out, err := b.call(ctx, MethodListTemplates)
	if err != nil {
		return nil, err
	}
	return TuplesOf(out)
}

func (b *Binding) GetBoss(ctx context.Context) (Tuple, error) {
	out, err := b.call(ctx, MethodGetBoss)
	if err != nil {
		return nil, err
	}
	return TupleOf(out)
}

// call runs a view method that returns exactly one value.
func (b *Binding) call(ctx context.Context, method string) (any, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: b.opts.From}
	if err := b.contract.Call(opts, &out, method); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values", ErrMalformed, method, len(out))
	}
	return out[0], nil
}

// ---------- Writes ----------

func (b *Binding) MintAvatar(ctx context.Context, templateIndex int) (*types.Transaction, error) {
	return b.transact(ctx, MethodMintAvatar, big.NewInt(int64(templateIndex)))
}

func (b *Binding) AttackBoss(ctx context.Context) (*types.Transaction, error) {
	return b.transact(ctx, MethodAttackBoss)
}

func (b *Binding) transact(ctx context.Context, method string, params ...interface{}) (*types.Transaction, error) {
	opts := *b.opts
	opts.Context = ctx
	tx, err := b.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}

func (b *Binding) Confirm(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return nil
}

// ---------- Events ----------

func (b *Binding) WatchCharacterAssigned(sink chan<- *CharacterAssigned) (event.Subscription, error) {
	return watch(b.contract, eventCharacterAssigned, sink, func(l types.Log) (*CharacterAssigned, error) {
		ev := new(CharacterAssigned)
		if err := b.contract.UnpackLog(ev, eventCharacterAssigned, l); err != nil {
			return nil, err
		}
		ev.Raw = l
		return ev, nil
	})
}

func (b *Binding) WatchAttackResolved(sink chan<- *AttackResolved) (event.Subscription, error) {
	return watch(b.contract, eventAttackResolved, sink, func(l types.Log) (*AttackResolved, error) {
		ev := new(AttackResolved)
		if err := b.contract.UnpackLog(ev, eventAttackResolved, l); err != nil {
			return nil, err
		}
		ev.Raw = l
		return ev, nil
	})
}

// watch subscribes to name and forwards every decoded log into sink until
// the returned subscription is cancelled or the log stream fails.
func watch[T any](c *bind.BoundContract, name string, sink chan<- *T, decode func(types.Log) (*T, error)) (event.Subscription, error) {
	logs, sub, err := c.WatchLogs(&bind.WatchOpts{}, name)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", name, err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if l.Removed {
					continue
				}
				ev, err := decode(l)
				if err != nil {
					return fmt.Errorf("decode %s: %w", name, err)
				}
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}
