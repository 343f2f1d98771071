package game

import (
	"context"
	"fmt"

	"okinoko-arena/contract"
)

// Resolve returns the account's avatar, or nil when it has none.
// It never retains anything between calls, so repeating it against
// unchanged contract state yields the same result.
func Resolve(ctx context.Context, h *ContractHandle) (*contract.AvatarInstance, error) {
	t, err := h.HasAvatar(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if contract.NoAvatar(t) {
		return nil, nil
	}
	av, err := contract.MapAvatar(t)
	if err != nil {
		return nil, classify(err)
	}
	return &av, nil
}

// Templates lists the mintable catalog. Each entry's index must match its
// position in the list.
func Templates(ctx context.Context, h *ContractHandle) ([]contract.CharacterTemplate, error) {
	raw, err := h.ListTemplates(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]contract.CharacterTemplate, 0, len(raw))
	for i, t := range raw {
		tpl, err := contract.MapTemplate(t)
		if err != nil {
			return nil, classify(fmt.Errorf("template %d: %w", i, err))
		}
		if tpl.Index != i {
			return nil, fmt.Errorf("%w: template at %d reports index %d", ErrMalformedContractData, i, tpl.Index)
		}
		out = append(out, tpl)
	}
	return out, nil
}

// Boss fetches the shared boss.
func Boss(ctx context.Context, h *ContractHandle) (*contract.BossState, error) {
	t, err := h.GetBoss(ctx)
	if err != nil {
		return nil, classify(err)
	}
	b, err := contract.MapBoss(t)
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}
