package game

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

// DefaultToastDelay is how long the hit toast stays up.
const DefaultToastDelay = 5 * time.Second

// State is everything the client knows about the game. It is a cache of
// the last confirmed contract state plus the local flow states.
type State struct {
	Version        uint64
	Gen            uint64
	Account        sdk.Account
	NetworkWarning error
	Templates      []contract.CharacterTemplate
	Avatar         *contract.AvatarInstance
	Boss           *contract.BossState
	Mint           MintState
	Attack         AttackState
	Toast          bool
	Err            error
}

func (s State) clone() State {
	out := s
	out.Templates = append([]contract.CharacterTemplate(nil), s.Templates...)
	if s.Avatar != nil {
		av := *s.Avatar
		out.Avatar = &av
	}
	if s.Boss != nil {
		b := *s.Boss
		out.Boss = &b
	}
	return out
}

type Options struct {
	Logger     *zap.Logger
	Binder     *AccountBinder
	Bind       BindFunc
	Metrics    *Metrics
	ToastDelay time.Duration
}

type waiter struct {
	pred func(State) bool
	ch   chan State
}

// Session runs the synchronization state machine. All state transitions
// happen on the goroutine running Run; the exported methods hand work to
// it and perform remote calls on the caller's goroutine.
type Session struct {
	log        *zap.Logger
	binder     *AccountBinder
	bind       BindFunc
	metrics    *Metrics
	toastDelay time.Duration
	events     *EventSync

	inbox chan func()
	done  chan struct{}

	// owned by the loop
	ctx      context.Context
	state    State
	handle   *ContractHandle
	gen      uint64
	mint     *MintFlow
	combat   *CombatFlow
	toastSeq uint64
	waiters  map[uint64]waiter
	waiterID uint64
	// attacks seen before the first load of the generation
	loaded  bool
	pending []*contract.AttackResolved
}

func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	delay := opts.ToastDelay
	if delay <= 0 {
		delay = DefaultToastDelay
	}
	binder := opts.Binder
	if binder == nil {
		binder = NewAccountBinder(nil, log)
	}
	return &Session{
		log:        log.Named("session"),
		binder:     binder,
		bind:       opts.Bind,
		metrics:    opts.Metrics,
		toastDelay: delay,
		events:     NewEventSync(log),
		inbox:      make(chan func(), 64),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		mint:       NewMintFlow(log),
		combat:     NewCombatFlow(log),
		waiters:    make(map[uint64]waiter),
	}
}

// Run processes transitions until ctx is done. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.done)
	defer s.events.Detach()
	s.log.Debug("session loop started")
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-ctx.Done():
			s.log.Debug("session loop stopped")
			return nil
		}
	}
}

// ---------- Operations ----------

// Connect resolves the account, prompting only if none is authorized yet,
// checks the network and binds a fresh handle.
func (s *Session) Connect(ctx context.Context) error {
	acct, ok, err := s.binder.CurrentAccount(ctx)
	if err != nil {
		s.surface(err)
		return err
	}
	if !ok {
		if acct, err = s.binder.Connect(ctx); err != nil {
			s.surface(err)
			return err
		}
	}
	warn := s.binder.ValidateNetwork(ctx)
	if warn != nil && !errors.Is(warn, ErrNetworkMismatch) {
		s.surface(warn)
		return warn
	}
	if err := s.do(ctx, func() {
		s.state.NetworkWarning = warn
		s.publish()
	}); err != nil {
		return err
	}
	return s.Bind(ctx, acct)
}

// Bind replaces the current handle with one for account. In-flight mint
// and attack state is abandoned and the avatar and boss are fetched anew.
func (s *Session) Bind(ctx context.Context, account sdk.Account) error {
	log := s.log.With(zap.String("action_id", uuid.NewString()), zap.Stringer("account", account))
	if s.bind == nil {
		return ErrNotBound
	}
	remote, err := s.bind(ctx, account)
	if err != nil {
		err = classify(err)
		log.Warn("bind failed", zap.Error(err))
		s.surface(err)
		return err
	}

	var h *ContractHandle
	var attachErr error
	if err := s.do(ctx, func() {
		if s.handle != nil {
			s.handle.invalidate()
		}
		s.gen++
		h = newHandle(s.gen, account, remote)
		s.handle = h
		s.mint.Reset()
		s.combat.Reset()
		s.loaded, s.pending = false, nil
		s.state = State{
			Version:        s.state.Version,
			Gen:            s.gen,
			Account:        account,
			NetworkWarning: s.state.NetworkWarning,
		}
		attachErr = s.events.Attach(h, s.deliver)
		s.state.Err = attachErr
		s.metrics.bound()
		s.publish()
	}); err != nil {
		return err
	}
	if attachErr != nil {
		log.Warn("listener attach failed", zap.Error(attachErr))
		return attachErr
	}
	log.Info("handle bound", zap.Uint64("gen", h.Generation()))
	return s.refresh(ctx, h)
}

// refresh loads the boss and the avatar for h, and the catalog when the
// account has no avatar yet.
// Attacks delivered meanwhile are held and replayed on top of the fetched
// state.
func (s *Session) refresh(ctx context.Context, h *ContractHandle) error {
	boss, err := Boss(ctx, h)
	if err != nil {
		return s.refreshFailed(ctx, h.gen, err)
	}
	avatar, err := Resolve(ctx, h)
	if err != nil {
		return s.refreshFailed(ctx, h.gen, err)
	}
	var templates []contract.CharacterTemplate
	if avatar == nil {
		if templates, err = Templates(ctx, h); err != nil {
			return s.refreshFailed(ctx, h.gen, err)
		}
	}
	return s.doGen(ctx, h.gen, func() {
		s.state.Boss = boss
		s.state.Avatar = avatar
		s.state.Templates = templates
		s.loaded = true
		for _, ev := range s.pending {
			s.applyAttack(ev)
		}
		s.pending = nil
		s.metrics.boss(s.state.Boss.HP)
		s.publish()
	})
}

func (s *Session) refreshFailed(ctx context.Context, gen uint64, err error) error {
	s.post(gen, func() { s.loaded, s.pending = true, nil })
	return s.failGen(ctx, gen, err)
}

// LoadTemplates fetches the catalog through the current handle.
func (s *Session) LoadTemplates(ctx context.Context) ([]contract.CharacterTemplate, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := Templates(ctx, h)
	if err != nil {
		return nil, s.failGen(ctx, h.gen, err)
	}
	err = s.doGen(ctx, h.gen, func() {
		s.state.Templates = templates
		s.publish()
	})
	return templates, err
}

// Mint submits a mint of templateIndex and returns once the transaction
// is sent. Completion is observed through the state.
func (s *Session) Mint(ctx context.Context, templateIndex int) (common.Hash, error) {
	log := s.log.With(zap.String("action_id", uuid.NewString()), zap.Int("template", templateIndex))

	var h *ContractHandle
	var bg context.Context
	var rejected error
	if err := s.do(ctx, func() {
		if s.handle == nil {
			rejected = ErrNotBound
			return
		}
		if rejected = s.mint.Begin(templateIndex, len(s.state.Templates), s.state.Avatar != nil); rejected != nil {
			return
		}
		h, bg = s.handle, s.ctx
		s.state.Err = nil
		s.state.Mint = s.mint.State()
		s.publish()
	}); err != nil {
		return common.Hash{}, err
	}
	if rejected != nil {
		log.Info("mint rejected", zap.Error(rejected))
		return common.Hash{}, rejected
	}

	tx, err := h.MintAvatar(ctx, templateIndex)
	if err != nil {
		err = classify(err)
		s.post(h.gen, func() {
			s.mint.OnSubmitFailed(err)
			s.mintSettled(false)
		})
		return common.Hash{}, err
	}
	s.metrics.txSubmitted(contract.MethodMintAvatar)
	log.Info("mint submitted", zap.Stringer("tx", tx.Hash()))
	s.post(h.gen, func() { s.mint.Submitted(tx.Hash()) })

	go s.confirm(bg, h, tx, contract.MethodMintAvatar, func(err error) {
		s.mintSettled(s.mint.OnConfirmed(err))
	})
	return tx.Hash(), nil
}

// Attack submits an attack and returns once the transaction is sent. The
// outcome arrives as an AttackResolved event.
func (s *Session) Attack(ctx context.Context) (common.Hash, error) {
	log := s.log.With(zap.String("action_id", uuid.NewString()))

	var h *ContractHandle
	var bg context.Context
	var rejected error
	if err := s.do(ctx, func() {
		if s.handle == nil {
			rejected = ErrNotBound
			return
		}
		if rejected = s.combat.Begin(s.state.Avatar); rejected != nil {
			return
		}
		h, bg = s.handle, s.ctx
		s.state.Err = nil
		s.state.Attack = s.combat.State()
		s.publish()
	}); err != nil {
		return common.Hash{}, err
	}
	if rejected != nil {
		log.Info("attack rejected", zap.Error(rejected))
		return common.Hash{}, rejected
	}

	tx, err := h.AttackBoss(ctx)
	if err != nil {
		err = classify(err)
		s.post(h.gen, func() {
			s.combat.OnSubmitFailed(err)
			s.state.Attack = s.combat.State()
			s.state.Err = err
			s.publish()
		})
		return common.Hash{}, err
	}
	s.metrics.txSubmitted(contract.MethodAttackBoss)
	log.Info("attack submitted", zap.Stringer("tx", tx.Hash()))

	go s.confirm(bg, h, tx, contract.MethodAttackBoss, func(err error) {
		s.combat.OnConfirmed(err)
		s.state.Attack = s.combat.State()
		if err != nil {
			s.state.Err = err
		}
		s.publish()
	})
	return tx.Hash(), nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := s.do(ctx, func() { st = s.state.clone() })
	return st, err
}

// Await blocks until pred holds for the state and returns that state.
// pred runs on the session loop and must not call back into the session.
func (s *Session) Await(ctx context.Context, pred func(State) bool) (State, error) {
	ch := make(chan State, 1)
	var id uint64
	if err := s.do(ctx, func() {
		if snap := s.state.clone(); pred(snap) {
			ch <- snap
			return
		}
		s.waiterID++
		id = s.waiterID
		s.waiters[id] = waiter{pred: pred, ch: ch}
	}); err != nil {
		return State{}, err
	}
	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		s.enqueue(func() { delete(s.waiters, id) })
		return State{}, ctx.Err()
	case <-s.done:
		return State{}, ErrClosed
	}
}

// ---------- Loop plumbing ----------

// deliver hands a contract event to the loop. It runs on the EventSync
// forwarding goroutine.
func (s *Session) deliver(d Delivery) {
	s.post(d.Gen, func() { s.apply(d) })
}

func (s *Session) apply(d Delivery) {
	switch {
	case d.Err != nil:
		s.log.Warn("event subscription failed", zap.Error(d.Err))
		s.state.Err = d.Err
	case d.Assigned != nil:
		if !s.mint.OnAssigned(d.Assigned, s.state.Account) {
			return
		}
		s.metrics.eventApplied("character_assigned", true)
		h, ctx := s.handle, s.ctx
		go func() {
			avatar, err := Resolve(ctx, h)
			s.post(h.gen, func() { s.mintSettled(s.mint.OnResolved(avatar, err)) })
		}()
		return
	case d.Attack != nil:
		if !s.loaded {
			s.pending = append(s.pending, d.Attack)
			return
		}
		s.applyAttack(d.Attack)
		if s.state.Boss != nil {
			s.metrics.boss(s.state.Boss.HP)
		}
	}
	s.publish()
}

func (s *Session) applyAttack(ev *contract.AttackResolved) {
	local := s.state.Account.Matches(ev.Sender)
	hit := s.combat.Apply(ev, s.state.Account, s.state.Boss, s.state.Avatar)
	s.metrics.eventApplied("attack_resolved", local)
	s.state.Attack = s.combat.State()
	if hit {
		s.showToast()
	}
}

// mintSettled copies the mint outcome into the state.
func (s *Session) mintSettled(completed bool) {
	s.state.Mint = s.mint.State()
	if completed {
		av := *s.mint.Avatar()
		s.state.Avatar = &av
	}
	if s.state.Mint == MintFailed {
		s.state.Err = s.mint.Err()
	}
	s.publish()
}

func (s *Session) showToast() {
	s.state.Toast = true
	s.toastSeq++
	seq, gen := s.toastSeq, s.gen
	time.AfterFunc(s.toastDelay, func() {
		s.post(gen, func() {
			if s.toastSeq != seq {
				return
			}
			s.state.Toast = false
			s.publish()
		})
	})
}

// confirm waits for tx without a deadline and posts the outcome back
// tagged with the generation of h.
func (s *Session) confirm(ctx context.Context, h *ContractHandle, tx *types.Transaction, method string, settle func(error)) {
	err := classify(h.Confirm(ctx, tx))
	if errors.Is(err, context.Canceled) {
		return
	}
	s.metrics.txSettled(method, err)
	if err != nil {
		s.log.Warn("transaction failed", zap.String("method", method), zap.Stringer("tx", tx.Hash()), zap.Error(err))
	} else {
		s.log.Debug("transaction confirmed", zap.String("method", method), zap.Stringer("tx", tx.Hash()))
	}
	s.post(h.gen, func() { settle(err) })
}

func (s *Session) current(ctx context.Context) (*ContractHandle, error) {
	var h *ContractHandle
	if err := s.do(ctx, func() { h = s.handle }); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotBound
	}
	return h, nil
}

func (s *Session) publish() {
	s.state.Version++
	for id, w := range s.waiters {
		if snap := s.state.clone(); w.pred(snap) {
			w.ch <- snap
			delete(s.waiters, id)
		}
	}
}

// surface records err as the last error regardless of generation.
func (s *Session) surface(err error) {
	s.enqueue(func() {
		s.state.Err = err
		s.publish()
	})
}

// failGen records err if gen is still current and returns it.
func (s *Session) failGen(ctx context.Context, gen uint64, err error) error {
	s.log.Warn("refresh failed", zap.Uint64("gen", gen), zap.Error(err))
	if doErr := s.doGen(ctx, gen, func() {
		s.state.Err = err
		s.publish()
	}); doErr != nil && !errors.Is(doErr, ErrStaleHandle) {
		return doErr
	}
	return err
}

func (s *Session) enqueue(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// post runs fn on the loop unless gen has been superseded by then.
func (s *Session) post(gen uint64, fn func()) {
	s.enqueue(func() {
		if gen != s.gen {
			s.log.Debug("stale result dropped", zap.Uint64("gen", gen), zap.Uint64("current", s.gen))
			return
		}
		fn()
	})
}

// do runs fn on the loop and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	select {
	case s.inbox <- func() { fn(); close(reply) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// doGen is do for work that only applies while gen is current.
func (s *Session) doGen(ctx context.Context, gen uint64, fn func()) error {
	var stale bool
	err := s.do(ctx, func() {
		if gen != s.gen {
			stale = true
			return
		}
		fn()
	})
	if err == nil && stale {
		err = ErrStaleHandle
	}
	return err
}
