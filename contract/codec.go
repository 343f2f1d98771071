package contract

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// ErrMalformed reports a contract value missing a field or carrying one of
// the wrong shape.
var ErrMalformed = errors.New("malformed contract data")

// ---------- Raw tuples ----------

// TupleOf flattens an ABI-decoded struct into a Tuple keyed by the json
// tags go-ethereum puts on generated tuple types.
func TupleOf(v any) (Tuple, error) {
	if t, ok := v.(Tuple); ok {
		return t, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected tuple, got %T", ErrMalformed, v)
	}
	rt := rv.Type()
	out := make(Tuple, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("json")
		if name == "" {
			name = f.Name
		}
		out[name] = rv.Field(i).Interface()
	}
	return out, nil
}

// TuplesOf flattens an ABI-decoded tuple array.
func TuplesOf(v any) ([]Tuple, error) {
	if ts, ok := v.([]Tuple); ok {
		return ts, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: expected tuple array, got %T", ErrMalformed, v)
	}
	out := make([]Tuple, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		t, err := TupleOf(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// ---------- Mapping ----------

type rawCharacter struct {
	Index        int64  `mapstructure:"characterIndex"`
	Name         string `mapstructure:"name"`
	ImageURI     string `mapstructure:"imageURI"`
	HP           int64  `mapstructure:"hp"`
	MaxHP        int64  `mapstructure:"maxHp"`
	AttackDamage int64  `mapstructure:"attackDamage"`
}

type rawBoss struct {
	Name         string `mapstructure:"name"`
	ImageURI     string `mapstructure:"imageURI"`
	HP           int64  `mapstructure:"hp"`
	MaxHP        int64  `mapstructure:"maxHp"`
	AttackDamage int64  `mapstructure:"attackDamage"`
}

// NoAvatar reports whether t is the contract's "no character" answer:
// either nothing at all or the zero struct with an empty name.
func NoAvatar(t Tuple) bool {
	if len(t) == 0 {
		return true
	}
	name, ok := t["name"].(string)
	return ok && name == ""
}

// MapTemplate converts a catalog tuple.
func MapTemplate(t Tuple) (CharacterTemplate, error) {
	var raw rawCharacter
	if err := decodeTuple(t, &raw); err != nil {
		return CharacterTemplate{}, err
	}
	if err := checkCharacter(raw); err != nil {
		return CharacterTemplate{}, err
	}
	return CharacterTemplate{
		Index:        int(raw.Index),
		Name:         raw.Name,
		ImageURI:     raw.ImageURI,
		HP:           raw.HP,
		MaxHP:        raw.MaxHP,
		AttackDamage: raw.AttackDamage,
	}, nil
}

// MapAvatar converts the tuple describing an owned character.
// Callers check NoAvatar first; an empty tuple is malformed here.
func MapAvatar(t Tuple) (AvatarInstance, error) {
	var raw rawCharacter
	if err := decodeTuple(t, &raw); err != nil {
		return AvatarInstance{}, err
	}
	if err := checkCharacter(raw); err != nil {
		return AvatarInstance{}, err
	}
	return AvatarInstance{
		Index:        int(raw.Index),
		Name:         raw.Name,
		ImageURI:     raw.ImageURI,
		HP:           raw.HP,
		MaxHP:        raw.MaxHP,
		AttackDamage: raw.AttackDamage,
	}, nil
}

// MapBoss converts the boss tuple.
func MapBoss(t Tuple) (BossState, error) {
	var raw rawBoss
	if err := decodeTuple(t, &raw); err != nil {
		return BossState{}, err
	}
	if raw.Name == "" {
		return BossState{}, fmt.Errorf("%w: boss has no name", ErrMalformed)
	}
	if err := checkHP(raw.HP, raw.MaxHP, raw.AttackDamage); err != nil {
		return BossState{}, err
	}
	return BossState{
		Name:         raw.Name,
		ImageURI:     raw.ImageURI,
		HP:           raw.HP,
		MaxHP:        raw.MaxHP,
		AttackDamage: raw.AttackDamage,
	}, nil
}

func checkCharacter(raw rawCharacter) error {
	if raw.Name == "" {
		return fmt.Errorf("%w: character has no name", ErrMalformed)
	}
	if raw.Index < 0 {
		return fmt.Errorf("%w: negative character index %d", ErrMalformed, raw.Index)
	}
	return checkHP(raw.HP, raw.MaxHP, raw.AttackDamage)
}

func checkHP(hp, maxHP, damage int64) error {
	switch {
	case maxHP <= 0:
		return fmt.Errorf("%w: maxHp %d", ErrMalformed, maxHP)
	case hp < 0 || hp > maxHP:
		return fmt.Errorf("%w: hp %d outside [0, %d]", ErrMalformed, hp, maxHP)
	case damage < 0:
		return fmt.Errorf("%w: attackDamage %d", ErrMalformed, damage)
	}
	return nil
}

// decodeTuple fills out from t, failing on any missing, nil or
// mistyped field.
func decodeTuple(t Tuple, out any) error {
	if nils := nilFields(t); len(nils) > 0 {
		return fmt.Errorf("%w: nil fields %v", ErrMalformed, nils)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: bigIntHook,
		ErrorUnset: true,
		Result:     out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(t)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// bigIntHook narrows uint256 values to int64.
func bigIntHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int64 {
		return data, nil
	}
	switch v := data.(type) {
	case *big.Int:
		if !v.IsInt64() {
			return nil, fmt.Errorf("integer %s out of range", v)
		}
		return v.Int64(), nil
	case big.Int:
		if !v.IsInt64() {
			return nil, fmt.Errorf("integer %s out of range", v.String())
		}
		return v.Int64(), nil
	}
	return data, nil
}

func nilFields(t Tuple) []string {
	var out []string
	for k, v := range t {
		if v == nil {
			out = append(out, k)
			continue
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
