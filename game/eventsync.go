package game

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"

	"okinoko-arena/contract"
)

// Delivery is one contract event, or a subscription failure, tagged with
// the handle generation that produced it.
type Delivery struct {
	Gen      uint64
	Assigned *contract.CharacterAssigned
	Attack   *contract.AttackResolved
	Err      error
}

// EventSync owns the listener set of the current handle. At most one set
// is live at a time.
type EventSync struct {
	log *zap.Logger

	mu    sync.Mutex
	scope *event.SubscriptionScope
	quit  chan struct{}
	gen   uint64
}

func NewEventSync(log *zap.Logger) *EventSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventSync{log: log.Named("events")}
}

// Attach detaches the previous listener set and subscribes to both game
// events of h. deliver is called from a forwarding goroutine.
func (s *EventSync) Attach(h *ContractHandle, deliver func(Delivery)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach()

	scope := new(event.SubscriptionScope)
	assigned := make(chan *contract.CharacterAssigned, 16)
	attacks := make(chan *contract.AttackResolved, 16)

	subA, err := h.watchAssigned(assigned)
	if err != nil {
		return fmt.Errorf("watch assignments: %w", err)
	}
	subA = scope.Track(subA)
	subB, err := h.watchAttacks(attacks)
	if err != nil {
		scope.Close()
		return fmt.Errorf("watch attacks: %w", err)
	}
	subB = scope.Track(subB)

	quit := make(chan struct{})
	s.scope, s.quit, s.gen = scope, quit, h.Generation()
	go forward(h.Generation(), quit, assigned, attacks, subA.Err(), subB.Err(), deliver)

	s.log.Debug("listeners attached", zap.Uint64("gen", h.Generation()))
	return nil
}

// Detach removes the live listener set, if any.
func (s *EventSync) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach()
}

// Active counts live subscriptions; two per attached set.
func (s *EventSync) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope == nil {
		return 0
	}
	return s.scope.Count()
}

func (s *EventSync) detach() {
	if s.scope == nil {
		return
	}
	close(s.quit)
	s.scope.Close()
	s.log.Debug("listeners detached", zap.Uint64("gen", s.gen))
	s.scope, s.quit = nil, nil
}

func forward(gen uint64, quit <-chan struct{},
	assigned <-chan *contract.CharacterAssigned, attacks <-chan *contract.AttackResolved,
	errA, errB <-chan error, deliver func(Delivery)) {
	for {
		var d Delivery
		select {
		case <-quit:
			return
		case ev := <-assigned:
			d = Delivery{Gen: gen, Assigned: ev}
		case ev := <-attacks:
			d = Delivery{Gen: gen, Attack: ev}
		case err, ok := <-errA:
			errA = nil
			if !ok || err == nil {
				continue
			}
			d = Delivery{Gen: gen, Err: fmt.Errorf("assignment subscription: %w", err)}
		case err, ok := <-errB:
			errB = nil
			if !ok || err == nil {
				continue
			}
			d = Delivery{Gen: gen, Err: fmt.Errorf("attack subscription: %w", err)}
		}
		select {
		case <-quit:
			return
		default:
			deliver(d)
		}
	}
}
