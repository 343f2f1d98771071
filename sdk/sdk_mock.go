package sdk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FakeProvider is an in-memory wallet for tests.
type FakeProvider struct {
	// Wallet holds the accounts a RequestAccounts call can grant.
	Wallet []common.Address
	// Authorized holds the accounts granted so far.
	Authorized []common.Address
	// Reject makes RequestAccounts fail with ErrRejected.
	Reject bool
	Chain  *big.Int

	Requests int
}

// NewFakeProvider returns a provider on chain 4 whose wallet holds addrs.
func NewFakeProvider(addrs ...common.Address) *FakeProvider {
	return &FakeProvider{Wallet: addrs, Chain: big.NewInt(4)}
}

func (f *FakeProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return f.Authorized, nil
}

func (f *FakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.Requests++
	if len(f.Wallet) == 0 {
		return nil, ErrNoProvider
	}
	if f.Reject {
		return nil, ErrRejected
	}
	f.Authorized = append([]common.Address(nil), f.Wallet...)
	return f.Authorized, nil
}

func (f *FakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return f.Chain, nil
}

func (f *FakeProvider) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}, nil
}
