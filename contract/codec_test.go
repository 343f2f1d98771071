package contract

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// abiCharacter mirrors the struct go-ethereum generates for the
// contract's character tuple.
type abiCharacter struct {
	CharacterIndex *big.Int `json:"characterIndex"`
	Name           string   `json:"name"`
	ImageURI       string   `json:"imageURI"`
	Hp             *big.Int `json:"hp"`
	MaxHp          *big.Int `json:"maxHp"`
	AttackDamage   *big.Int `json:"attackDamage"`
}

func TestTupleOf_ABIStruct(t *testing.T) {
	v := abiCharacter{big.NewInt(2), "Zuko", "QmZ", big.NewInt(150), big.NewInt(200), big.NewInt(40)}
	tuple, err := TupleOf(v)
	require.NoError(t, err)

	av, err := MapAvatar(tuple)
	require.NoError(t, err)
	assert.Equal(t, AvatarInstance{Index: 2, Name: "Zuko", ImageURI: "QmZ", HP: 150, MaxHP: 200, AttackDamage: 40}, av)

	tuples, err := TuplesOf([]abiCharacter{v, v})
	require.NoError(t, err)
	assert.Len(t, tuples, 2)

	_, err = TupleOf(42)
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = TuplesOf("nope")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNoAvatar(t *testing.T) {
	assert.True(t, NoAvatar(nil))
	assert.True(t, NoAvatar(Tuple{}))
	assert.True(t, NoAvatar(CharacterTuple(0, "", "", 0, 0, 0)))
	assert.False(t, NoAvatar(CharacterTuple(0, "Aang", "QmA", 100, 100, 10)))
}

func TestMapAvatar_Malformed(t *testing.T) {
	good := func() Tuple { return CharacterTuple(1, "Aang", "QmA", 90, 100, 10) }

	tests := []struct {
		name   string
		mutate func(Tuple)
	}{
		{"missing name", func(t Tuple) { delete(t, "name") }},
		{"missing hp", func(t Tuple) { delete(t, "hp") }},
		{"nil maxHp", func(t Tuple) { t["maxHp"] = (*big.Int)(nil) }},
		{"name is a number", func(t Tuple) { t["name"] = big.NewInt(7) }},
		{"hp is a string", func(t Tuple) { t["hp"] = "ninety" }},
		{"hp above max", func(t Tuple) { t["hp"] = big.NewInt(101) }},
		{"negative hp", func(t Tuple) { t["hp"] = big.NewInt(-1) }},
		{"zero maxHp", func(t Tuple) { t["maxHp"] = big.NewInt(0); t["hp"] = big.NewInt(0) }},
		{"overflowing damage", func(t Tuple) { t["attackDamage"] = new(big.Int).Lsh(big.NewInt(1), 80) }},
		{"empty name", func(t Tuple) { t["name"] = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuple := good()
			tt.mutate(tuple)
			_, err := MapAvatar(tuple)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestMapAvatar_Idempotent(t *testing.T) {
	tuple := CharacterTuple(1, "Aang", "QmA", 90, 100, 10)
	first, err := MapAvatar(tuple)
	require.NoError(t, err)
	second, err := MapAvatar(tuple)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMapTemplate(t *testing.T) {
	tpl, err := MapTemplate(CharacterTuple(3, "Toph", "QmT", 300, 300, 25))
	require.NoError(t, err)
	assert.Equal(t, 3, tpl.Index)
	assert.Equal(t, int64(25), tpl.AttackDamage)

	_, err = MapTemplate(CharacterTuple(-1, "Toph", "QmT", 300, 300, 25))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMapBoss(t *testing.T) {
	boss, err := MapBoss(BossTuple("Elon", "QmE", 10000, 10000, 50))
	require.NoError(t, err)
	assert.Equal(t, BossState{Name: "Elon", ImageURI: "QmE", HP: 10000, MaxHP: 10000, AttackDamage: 50}, boss)

	bad := BossTuple("Elon", "QmE", 10, 10, 50)
	delete(bad, "attackDamage")
	_, err = MapBoss(bad)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = MapBoss(BossTuple("", "QmE", 10, 10, 50))
	assert.ErrorIs(t, err, ErrMalformed)
}
