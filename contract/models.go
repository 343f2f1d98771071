package contract

import "strings"

// Tuple is a raw struct value returned by the contract, keyed by the
// ABI component names (characterIndex, name, imageURI, ...).
type Tuple map[string]any

// DefaultGateway is the IPFS gateway image ids are resolved against.
const DefaultGateway = "https://cloudflare-ipfs.com/ipfs/"

// CharacterTemplate is a catalog entry offered at mint time.
type CharacterTemplate struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           int64  `json:"hp"`
	MaxHP        int64  `json:"maxHp"`
	AttackDamage int64  `json:"attackDamage"`
}

// AvatarInstance is the character token owned by an account.
type AvatarInstance struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           int64  `json:"hp"`
	MaxHP        int64  `json:"maxHp"`
	AttackDamage int64  `json:"attackDamage"`
}

// BossState is the boss shared by every player of the contract.
type BossState struct {
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           int64  `json:"hp"`
	MaxHP        int64  `json:"maxHp"`
	AttackDamage int64  `json:"attackDamage"`
}

func (t CharacterTemplate) ImageURL(gateway string) string { return imageURL(gateway, t.ImageURI) }
func (a AvatarInstance) ImageURL(gateway string) string    { return imageURL(gateway, a.ImageURI) }
func (b BossState) ImageURL(gateway string) string         { return imageURL(gateway, b.ImageURI) }

// SetHP stores hp clamped into [0, MaxHP].
func (a *AvatarInstance) SetHP(hp int64) { a.HP = ClampHP(hp, a.MaxHP) }

// SetHP stores hp clamped into [0, MaxHP].
func (b *BossState) SetHP(hp int64) { b.HP = ClampHP(hp, b.MaxHP) }

// Defeated reports whether the avatar can no longer attack.
func (a AvatarInstance) Defeated() bool { return a.HP <= 0 }

// ClampHP bounds hp to the inclusive range [0, max].
func ClampHP(hp, max int64) int64 {
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}

func imageURL(gateway, ref string) string {
	if ref == "" || strings.Contains(ref, "://") {
		return ref
	}
	if gateway == "" {
		gateway = DefaultGateway
	}
	return strings.TrimSuffix(gateway, "/") + "/" + strings.TrimPrefix(ref, "/")
}
