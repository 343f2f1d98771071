package game

import (
	"go.uber.org/zap"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

type AttackState int

const (
	AttackIdle AttackState = iota
	AttackAttacking
	AttackHit
)

func (s AttackState) String() string {
	switch s {
	case AttackIdle:
		return "idle"
	case AttackAttacking:
		return "attacking"
	case AttackHit:
		return "hit"
	}
	return "unknown"
}

// CombatFlow guards attack submission and reconciles attack outcomes into
// the boss and avatar. Outcomes come only from contract events; a
// successful receipt alone changes nothing.
type CombatFlow struct {
	log   *zap.Logger
	state AttackState
}

func NewCombatFlow(log *zap.Logger) *CombatFlow {
	if log == nil {
		log = zap.NewNop()
	}
	return &CombatFlow{log: log.Named("combat")}
}

func (c *CombatFlow) State() AttackState { return c.state }

// Begin moves to AttackAttacking if avatar may attack now.
func (c *CombatFlow) Begin(avatar *contract.AvatarInstance) error {
	switch {
	case c.state == AttackAttacking:
		return ErrAttackInFlight
	case avatar == nil:
		return ErrNoAvatar
	case avatar.Defeated():
		return ErrAvatarDefeated
	}
	c.state = AttackAttacking
	return nil
}

// OnSubmitFailed returns to idle when the write call errored.
func (c *CombatFlow) OnSubmitFailed(err error) {
	if c.state == AttackAttacking {
		c.state = AttackIdle
		c.log.Warn("attack submission failed", zap.Error(err))
	}
}

// OnConfirmed returns to idle on a failed receipt.
func (c *CombatFlow) OnConfirmed(err error) {
	if err == nil || c.state != AttackAttacking {
		return
	}
	c.state = AttackIdle
	c.log.Warn("attack failed", zap.Error(err))
}

// Apply reconciles an attack outcome. The boss hp always follows the
// event; the avatar hp only when the local account attacked. Apply
// reports whether the event was the local attack landing.
func (c *CombatFlow) Apply(ev *contract.AttackResolved, account sdk.Account, boss *contract.BossState, avatar *contract.AvatarInstance) bool {
	if ev == nil {
		return false
	}
	if boss != nil {
		boss.SetHP(ev.BossHP())
	}
	if !account.Matches(ev.Sender) {
		c.log.Debug("remote attack applied",
			zap.String("from", ev.Sender.Hex()), zap.Int64("boss_hp", ev.BossHP()))
		return false
	}
	if avatar != nil {
		avatar.SetHP(ev.PlayerHP())
	}
	if c.state != AttackAttacking {
		return false
	}
	c.state = AttackHit
	c.log.Info("attack landed", zap.Int64("boss_hp", ev.BossHP()), zap.Int64("player_hp", ev.PlayerHP()))
	return true
}

// Reset drops any in-flight attack without claiming an outcome.
func (c *CombatFlow) Reset() { c.state = AttackIdle }
