package game

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

var (
	// ErrProviderMissing means there is no wallet to talk to. Not retried.
	ErrProviderMissing = errors.New("wallet provider missing")

	// ErrUserRejected means the user declined an authorization request.
	ErrUserRejected = errors.New("user rejected request")

	// ErrNetworkMismatch is a warning: the wallet is on another chain.
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrTransactionReverted means a submitted transaction failed on chain.
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrMalformedContractData means a contract answer could not be mapped.
	ErrMalformedContractData = errors.New("malformed contract data")

	ErrClosed             = errors.New("session closed")
	ErrNotBound           = errors.New("no contract handle bound")
	ErrStaleHandle        = errors.New("contract handle is stale")
	ErrAttackInFlight     = errors.New("attack already in flight")
	ErrMintInFlight       = errors.New("mint already in flight")
	ErrTemplateOutOfRange = errors.New("template index out of range")
	ErrNoAvatar           = errors.New("account has no avatar")
	ErrAvatarExists       = errors.New("account already has an avatar")
	ErrAvatarDefeated     = errors.New("avatar has no hp left")
)

// NetworkMismatchError carries the chain ids involved in a mismatch.
type NetworkMismatchError struct {
	Want *big.Int
	Got  *big.Int
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("network mismatch: want chain %s, wallet is on %s", e.Want, e.Got)
}

func (e *NetworkMismatchError) Unwrap() error { return ErrNetworkMismatch }

// rpcRevertCode is the JSON-RPC error code nodes use for a reverted call
// or gas estimate.
const rpcRevertCode = 3

// classify maps errors coming from the wallet and contract layers onto
// the game taxonomy, keeping the original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrProviderMissing), errors.Is(err, ErrUserRejected),
		errors.Is(err, ErrTransactionReverted), errors.Is(err, ErrMalformedContractData):
		return err
	case errors.Is(err, sdk.ErrNoProvider):
		return fmt.Errorf("%w: %w", ErrProviderMissing, err)
	case errors.Is(err, sdk.ErrRejected):
		return fmt.Errorf("%w: %w", ErrUserRejected, err)
	case errors.Is(err, contract.ErrReverted), isRPCRevert(err):
		return fmt.Errorf("%w: %w", ErrTransactionReverted, err)
	case errors.Is(err, contract.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedContractData, err)
	}
	return err
}

// isRPCRevert recognizes a revert reported by the node. Endpoints that do
// not set the error code are matched on the message.
func isRPCRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == rpcRevertCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
