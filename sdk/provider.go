package sdk

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoProvider means no wallet capability is available at all.
	ErrNoProvider = errors.New("no wallet provider")
	// ErrRejected means the user declined an authorization request.
	ErrRejected = errors.New("authorization rejected")
)

// Provider is the wallet capability the client is handed at startup.
type Provider interface {
	// Accounts lists already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts prompts for authorization and may fail with ErrRejected.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// ChainID reports the network the wallet is connected to.
	ChainID(ctx context.Context) (*big.Int, error)
	// Transactor returns signing options for an authorized account.
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}
