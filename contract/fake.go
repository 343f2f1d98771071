package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Submission records a write call made against a FakeChain.
type Submission struct {
	Method string
	From   common.Address
	Index  int
	Tx     *types.Transaction
}

// FakeChain is an in-memory stand-in for the deployed game contract.
// Transactions stay pending until Mine is called for their hash, unless
// AutoConfirm is set; events are only emitted by Assign and Resolve, so a
// test decides in which order receipts and events arrive.
type FakeChain struct {
	AutoConfirm bool

	mu          sync.Mutex
	templates   []Tuple
	avatars     map[common.Address]Tuple
	boss        Tuple
	nonce       uint64
	receipts    map[common.Hash]chan error
	submissions []Submission
	calls       map[string]int
	failNext    map[string]error
	listeners   int

	assigned event.FeedOf[*CharacterAssigned]
	attacks  event.FeedOf[*AttackResolved]
}

// NewFakeChain creates a chain holding boss and the given catalog.
func NewFakeChain(boss Tuple, templates ...Tuple) *FakeChain {
	return &FakeChain{
		templates: templates,
		avatars:   make(map[common.Address]Tuple),
		boss:      boss,
		receipts:  make(map[common.Hash]chan error),
		calls:     make(map[string]int),
		failNext:  make(map[string]error),
	}
}

// CharacterTuple builds a tuple shaped like the contract's character struct.
func CharacterTuple(index int, name, image string, hp, maxHP, damage int64) Tuple {
	return Tuple{
		"characterIndex": big.NewInt(int64(index)),
		"name":           name,
		"imageURI":       image,
		"hp":             big.NewInt(hp),
		"maxHp":          big.NewInt(maxHP),
		"attackDamage":   big.NewInt(damage),
	}
}

// BossTuple builds a tuple shaped like the contract's boss struct.
func BossTuple(name, image string, hp, maxHP, damage int64) Tuple {
	return Tuple{
		"name":         name,
		"imageURI":     image,
		"hp":           big.NewInt(hp),
		"maxHp":        big.NewInt(maxHP),
		"attackDamage": big.NewInt(damage),
	}
}

// Handle returns the contract as seen by account.
func (c *FakeChain) Handle(account common.Address) *FakeHandle {
	return &FakeHandle{chain: c, account: account}
}

// SetAvatar gives account a character without going through a mint.
func (c *FakeChain) SetAvatar(account common.Address, t Tuple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.avatars[account] = copyTuple(t)
}

// FailNext makes the next call of method return err.
func (c *FakeChain) FailNext(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext[method] = err
}

// Mine settles a pending transaction. A nil err means success.
func (c *FakeChain) Mine(hash common.Hash, err error) {
	c.receipt(hash) <- err
}

// Assign gives account a copy of template index and emits the assignment
// event. It returns the number of listeners the event reached.
func (c *FakeChain) Assign(account common.Address, tokenID uint64, index int) int {
	c.mu.Lock()
	if index >= 0 && index < len(c.templates) {
		c.avatars[account] = copyTuple(c.templates[index])
	}
	c.mu.Unlock()
	return c.assigned.Send(NewCharacterAssigned(account, tokenID, index))
}

// Resolve records an attack by from and emits the outcome. It returns the
// number of listeners the event reached.
func (c *FakeChain) Resolve(from common.Address, bossHP, playerHP int64) int {
	c.mu.Lock()
	c.boss["hp"] = big.NewInt(bossHP)
	if av, ok := c.avatars[from]; ok {
		av["hp"] = big.NewInt(playerHP)
	}
	c.mu.Unlock()
	return c.attacks.Send(NewAttackResolved(from, bossHP, playerHP))
}

// Emit delivers an arbitrary attack event without touching chain state.
func (c *FakeChain) Emit(ev *AttackResolved) int { return c.attacks.Send(ev) }

// Submissions lists every write call in order.
func (c *FakeChain) Submissions() []Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Submission(nil), c.submissions...)
}

// LastTx returns the hash of the most recent write call.
func (c *FakeChain) LastTx() common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.submissions) == 0 {
		return common.Hash{}
	}
	return c.submissions[len(c.submissions)-1].Tx.Hash()
}

// Calls counts invocations of a contract method by name.
func (c *FakeChain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Listeners counts live event subscriptions across all handles.
func (c *FakeChain) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listeners
}

func (c *FakeChain) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	if err, ok := c.failNext[method]; ok {
		delete(c.failNext, method)
		return err
	}
	return nil
}

func (c *FakeChain) submit(method string, from common.Address, index int) *types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: c.nonce, Data: []byte(method)})
	c.submissions = append(c.submissions, Submission{Method: method, From: from, Index: index, Tx: tx})
	return tx
}

func (c *FakeChain) receipt(hash common.Hash) chan error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.receipts[hash]
	if !ok {
		ch = make(chan error, 1)
		c.receipts[hash] = ch
	}
	return ch
}

func (c *FakeChain) track(sub event.Subscription) event.Subscription {
	c.mu.Lock()
	c.listeners++
	c.mu.Unlock()
	return &fakeSub{Subscription: sub, release: func() {
		c.mu.Lock()
		c.listeners--
		c.mu.Unlock()
	}}
}

type fakeSub struct {
	event.Subscription
	once    sync.Once
	release func()
}

func (s *fakeSub) Unsubscribe() {
	s.once.Do(func() {
		s.Subscription.Unsubscribe()
		s.release()
	})
}

// FakeHandle is a FakeChain bound to one account.
type FakeHandle struct {
	chain   *FakeChain
	account common.Address
}

var _ Handle = (*FakeHandle)(nil)

func (h *FakeHandle) HasAvatar(ctx context.Context) (Tuple, error) {
	if err := h.chain.enter(MethodHasAvatar); err != nil {
		return nil, err
	}
	h.chain.mu.Lock()
	defer h.chain.mu.Unlock()
	av, ok := h.chain.avatars[h.account]
	if !ok {
		// the contract answers with a zero struct
		return CharacterTuple(0, "", "", 0, 0, 0), nil
	}
	return copyTuple(av), nil
}

func (h *FakeHandle) ListTemplates(ctx context.Context) ([]Tuple, error) {
	if err := h.chain.enter(MethodListTemplates); err != nil {
		return nil, err
	}
	h.chain.mu.Lock()
	defer h.chain.mu.Unlock()
	out := make([]Tuple, len(h.chain.templates))
	for i, t := range h.chain.templates {
		out[i] = copyTuple(t)
	}
	return out, nil
}

func (h *FakeHandle) GetBoss(ctx context.Context) (Tuple, error) {
	if err := h.chain.enter(MethodGetBoss); err != nil {
		return nil, err
	}
	h.chain.mu.Lock()
	defer h.chain.mu.Unlock()
	return copyTuple(h.chain.boss), nil
}

func (h *FakeHandle) MintAvatar(ctx context.Context, templateIndex int) (*types.Transaction, error) {
	if err := h.chain.enter(MethodMintAvatar); err != nil {
		return nil, err
	}
	h.chain.mu.Lock()
	n := len(h.chain.templates)
	h.chain.mu.Unlock()
	if templateIndex < 0 || templateIndex >= n {
		return nil, fmt.Errorf("execution reverted: no template %d", templateIndex)
	}
	return h.chain.submit(MethodMintAvatar, h.account, templateIndex), nil
}

func (h *FakeHandle) AttackBoss(ctx context.Context) (*types.Transaction, error) {
	if err := h.chain.enter(MethodAttackBoss); err != nil {
		return nil, err
	}
	return h.chain.submit(MethodAttackBoss, h.account, -1), nil
}

func (h *FakeHandle) Confirm(ctx context.Context, tx *types.Transaction) error {
	if h.chain.AutoConfirm {
		return nil
	}
	select {
	case err := <-h.chain.receipt(tx.Hash()):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *FakeHandle) WatchCharacterAssigned(sink chan<- *CharacterAssigned) (event.Subscription, error) {
	return h.chain.track(h.chain.assigned.Subscribe(sink)), nil
}

func (h *FakeHandle) WatchAttackResolved(sink chan<- *AttackResolved) (event.Subscription, error) {
	return h.chain.track(h.chain.attacks.Subscribe(sink)), nil
}

func copyTuple(t Tuple) Tuple {
	out := make(Tuple, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
