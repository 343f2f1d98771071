package sdk

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ChainIDReader is the part of an RPC client the provider needs to
// report the connected network. *ethclient.Client satisfies it.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Prompter asks the user for a passphrase. prompt.Stdin from
// go-ethereum's console/prompt package satisfies it.
type Prompter interface {
	PromptPassword(prompt string) (string, error)
}

// KeystoreProvider is a Provider backed by an encrypted key directory.
// An account counts as authorized once it has been unlocked in this process.
type KeystoreProvider struct {
	ks     *keystore.KeyStore
	chain  ChainIDReader
	prompt Prompter
	log    *zap.Logger

	mu         sync.Mutex
	authorized []common.Address
}

// NewKeystoreProvider opens dir as a keystore. prompt may be nil, in which
// case RequestAccounts always rejects.
func NewKeystoreProvider(dir string, chain ChainIDReader, prompt Prompter, log *zap.Logger) (*KeystoreProvider, error) {
	if dir == "" || chain == nil {
		return nil, ErrNoProvider
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KeystoreProvider{
		ks:     keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		chain:  chain,
		prompt: prompt,
		log:    log.Named("wallet"),
	}, nil
}

// Authorize unlocks the first keystore account with a known passphrase,
// the non-interactive path used when the passphrase comes from config.
func (p *KeystoreProvider) Authorize(passphrase string) error {
	acct, err := p.first()
	if err != nil {
		return err
	}
	return p.unlock(acct, passphrase)
}

func (p *KeystoreProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]common.Address, len(p.authorized))
	copy(out, p.authorized)
	return out, nil
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	acct, err := p.first()
	if err != nil {
		return nil, err
	}
	if p.isAuthorized(acct.Address) {
		return []common.Address{acct.Address}, nil
	}
	if p.prompt == nil {
		return nil, ErrRejected
	}
	pass, err := p.prompt.PromptPassword(fmt.Sprintf("Passphrase for %s: ", acct.Address.Hex()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if pass == "" {
		return nil, ErrRejected
	}
	if err := p.unlock(acct, pass); err != nil {
		return nil, err
	}
	return []common.Address{acct.Address}, nil
}

func (p *KeystoreProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.chain.ChainID(ctx)
}

func (p *KeystoreProvider) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if !p.isAuthorized(account) {
		return nil, ErrRejected
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: account}, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (p *KeystoreProvider) first() (accounts.Account, error) {
	all := p.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, ErrNoProvider
	}
	return all[0], nil
}

func (p *KeystoreProvider) unlock(acct accounts.Account, passphrase string) error {
	if err := p.ks.Unlock(acct, passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.authorized {
		if a == acct.Address {
			return nil
		}
	}
	p.authorized = append(p.authorized, acct.Address)
	p.log.Info("account unlocked", zap.Stringer("account", acct.Address))
	return nil
}

func (p *KeystoreProvider) isAuthorized(addr common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.authorized {
		if a == addr {
			return true
		}
	}
	return false
}
