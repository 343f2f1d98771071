package sdk

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a wallet address normalized to lowercase hex.
// It is the identity key used to decide whether a chain event belongs
// to the local player.
type Account string

// NewAccount normalizes addr into an Account.
func NewAccount(addr common.Address) Account {
	return Account(strings.ToLower(addr.Hex()))
}

// ParseAccount accepts any hex address string, checksummed or not.
func ParseAccount(s string) (Account, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}
	return NewAccount(common.HexToAddress(s)), true
}

// Address returns the account as a go-ethereum address.
func (a Account) Address() common.Address { return common.HexToAddress(string(a)) }

// Matches reports whether addr is this account, ignoring case.
func (a Account) Matches(addr common.Address) bool {
	return a != "" && strings.EqualFold(string(a), addr.Hex())
}

func (a Account) String() string { return string(a) }
