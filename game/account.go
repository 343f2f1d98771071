package game

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"okinoko-arena/sdk"
)

// RequiredChainID is the network the game contract is deployed on.
var RequiredChainID = big.NewInt(4)

// AccountBinder resolves the active wallet account through an injected
// provider. A nil provider is allowed and makes every call fail with
// ErrProviderMissing.
type AccountBinder struct {
	provider sdk.Provider
	log      *zap.Logger
}

func NewAccountBinder(provider sdk.Provider, log *zap.Logger) *AccountBinder {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountBinder{provider: provider, log: log.Named("account")}
}

// Provider returns the injected wallet capability.
func (b *AccountBinder) Provider() sdk.Provider { return b.provider }

// Connect asks the wallet for authorization and returns the first account.
func (b *AccountBinder) Connect(ctx context.Context) (sdk.Account, error) {
	if b.provider == nil {
		return "", ErrProviderMissing
	}
	addrs, err := b.provider.RequestAccounts(ctx)
	if err != nil {
		err = classify(err)
		b.log.Warn("authorization failed", zap.Error(err))
		return "", err
	}
	if len(addrs) == 0 {
		return "", ErrUserRejected
	}
	acct := sdk.NewAccount(addrs[0])
	b.log.Info("connected", zap.Stringer("account", acct))
	return acct, nil
}

// CurrentAccount returns an already-authorized account without prompting.
// The boolean is false when none is authorized yet.
func (b *AccountBinder) CurrentAccount(ctx context.Context) (sdk.Account, bool, error) {
	if b.provider == nil {
		return "", false, ErrProviderMissing
	}
	addrs, err := b.provider.Accounts(ctx)
	if err != nil {
		return "", false, classify(err)
	}
	if len(addrs) == 0 {
		b.log.Debug("no authorized account")
		return "", false, nil
	}
	return sdk.NewAccount(addrs[0]), true, nil
}

// ValidateNetwork returns a *NetworkMismatchError when the wallet is not on
// RequiredChainID. The result is a warning; callers keep going.
func (b *AccountBinder) ValidateNetwork(ctx context.Context) error {
	if b.provider == nil {
		return ErrProviderMissing
	}
	id, err := b.provider.ChainID(ctx)
	if err != nil {
		return classify(err)
	}
	if id == nil || id.Cmp(RequiredChainID) != 0 {
		mismatch := &NetworkMismatchError{Want: RequiredChainID, Got: id}
		b.log.Warn("wrong network", zap.Error(mismatch))
		return mismatch
	}
	return nil
}
