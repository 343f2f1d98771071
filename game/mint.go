package game

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

type MintState int

const (
	MintIdle MintState = iota
	MintMinting
	MintMinted
	MintFailed
)

func (s MintState) String() string {
	switch s {
	case MintIdle:
		return "idle"
	case MintMinting:
		return "minting"
	case MintMinted:
		return "minted"
	case MintFailed:
		return "failed"
	}
	return "unknown"
}

// MintFlow tracks one avatar mint from submission to the authoritative
// re-resolve. The receipt and the assignment event may arrive in either
// order; the mint completes once the receipt succeeded and the resolve
// triggered by the event returned an avatar.
//
// MintFlow is not safe for concurrent use; the session loop drives it.
type MintFlow struct {
	log *zap.Logger

	state     MintState
	index     int
	tx        common.Hash
	confirmed bool
	assigned  bool
	avatar    *contract.AvatarInstance
	err       error
}

func NewMintFlow(log *zap.Logger) *MintFlow {
	if log == nil {
		log = zap.NewNop()
	}
	return &MintFlow{log: log.Named("mint")}
}

func (m *MintFlow) State() MintState { return m.state }
func (m *MintFlow) Err() error       { return m.err }

// Avatar returns the minted avatar once the flow reached MintMinted.
func (m *MintFlow) Avatar() *contract.AvatarInstance {
	if m.state != MintMinted {
		return nil
	}
	return m.avatar
}

// Begin moves to MintMinting if a mint of templateIndex may be submitted.
func (m *MintFlow) Begin(templateIndex, templates int, hasAvatar bool) error {
	switch {
	case m.state == MintMinting:
		return ErrMintInFlight
	case hasAvatar:
		return ErrAvatarExists
	case templateIndex < 0 || templateIndex >= templates:
		return ErrTemplateOutOfRange
	}
	*m = MintFlow{log: m.log, state: MintMinting, index: templateIndex}
	return nil
}

// Submitted records the hash of the mint transaction.
func (m *MintFlow) Submitted(tx common.Hash) {
	if m.state == MintMinting {
		m.tx = tx
	}
}

// OnSubmitFailed fails the flow when the write call itself errored.
func (m *MintFlow) OnSubmitFailed(err error) {
	if m.state != MintMinting {
		return
	}
	m.fail(err)
}

// OnConfirmed applies the receipt outcome. It reports whether the flow
// completed.
func (m *MintFlow) OnConfirmed(err error) bool {
	if m.state != MintMinting {
		return false
	}
	if err != nil {
		m.fail(err)
		return false
	}
	m.confirmed = true
	return m.complete()
}

// OnAssigned reports whether ev should trigger the re-resolve. Only the
// first matching event from the local account does so.
func (m *MintFlow) OnAssigned(ev *contract.CharacterAssigned, account sdk.Account) bool {
	if m.state != MintMinting || ev == nil || !account.Matches(ev.Sender) {
		return false
	}
	if m.assigned {
		m.log.Debug("duplicate assignment ignored", zap.String("token", ev.TokenID()))
		return false
	}
	if ev.Index() != m.index {
		m.log.Warn("assigned template differs from request",
			zap.Int("requested", m.index), zap.Int("assigned", ev.Index()))
	}
	m.assigned = true
	return true
}

// OnResolved applies the re-resolve result. It reports whether the flow
// completed.
func (m *MintFlow) OnResolved(av *contract.AvatarInstance, err error) bool {
	if m.state != MintMinting {
		return false
	}
	switch {
	case err != nil:
		m.fail(err)
		return false
	case av == nil:
		m.fail(ErrNoAvatar)
		return false
	}
	m.avatar = av
	return m.complete()
}

// Reset drops any in-flight mint without claiming an outcome.
func (m *MintFlow) Reset() { *m = MintFlow{log: m.log} }

func (m *MintFlow) complete() bool {
	if !m.confirmed || m.avatar == nil {
		return false
	}
	m.state = MintMinted
	m.log.Info("avatar minted", zap.String("name", m.avatar.Name), zap.Stringer("tx", m.tx))
	return true
}

func (m *MintFlow) fail(err error) {
	m.state = MintFailed
	m.err = err
	m.log.Warn("mint failed", zap.Int("template", m.index), zap.Stringer("tx", m.tx), zap.Error(err))
}
