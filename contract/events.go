package contract

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CharacterAssigned is emitted once a mint has assigned a character token
// to its sender.
type CharacterAssigned struct {
	Sender         common.Address
	TokenId        *big.Int
	CharacterIndex *big.Int
	Raw            types.Log
}

// AttackResolved is emitted after any player's attack, carrying the
// authoritative hp of the boss and of the attacker.
type AttackResolved struct {
	Sender      common.Address
	NewBossHp   *big.Int
	NewPlayerHp *big.Int
	Raw         types.Log
}

// NewCharacterAssigned builds an event the way the contract would emit it.
func NewCharacterAssigned(sender common.Address, tokenID uint64, index int) *CharacterAssigned {
	return &CharacterAssigned{
		Sender:         sender,
		TokenId:        new(big.Int).SetUint64(tokenID),
		CharacterIndex: big.NewInt(int64(index)),
	}
}

// NewAttackResolved builds an event the way the contract would emit it.
func NewAttackResolved(sender common.Address, bossHP, playerHP int64) *AttackResolved {
	return &AttackResolved{
		Sender:      sender,
		NewBossHp:   big.NewInt(bossHP),
		NewPlayerHp: big.NewInt(playerHP),
	}
}

// Index returns the template ordinal the character was minted from,
// or -1 when the value does not fit.
func (e *CharacterAssigned) Index() int {
	if e.CharacterIndex == nil || !e.CharacterIndex.IsInt64() || e.CharacterIndex.Int64() > math.MaxInt32 {
		return -1
	}
	return int(e.CharacterIndex.Int64())
}

// TokenID returns the minted token id as a decimal string.
func (e *CharacterAssigned) TokenID() string {
	if e.TokenId == nil {
		return ""
	}
	return e.TokenId.String()
}

// BossHP returns the new boss hp saturated to int64.
func (e *AttackResolved) BossHP() int64 { return saturate(e.NewBossHp) }

// PlayerHP returns the attacker's new hp saturated to int64.
func (e *AttackResolved) PlayerHP() int64 { return saturate(e.NewPlayerHp) }

func saturate(v *big.Int) int64 {
	switch {
	case v == nil:
		return 0
	case v.IsInt64():
		return v.Int64()
	case v.Sign() < 0:
		return math.MinInt64
	default:
		return math.MaxInt64
	}
}
