package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"okinoko-arena/contract"
	"okinoko-arena/sdk"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
)

func newChain() *contract.FakeChain {
	return contract.NewFakeChain(
		contract.BossTuple("Elon", "QmBoss", 100, 100, 20),
		contract.CharacterTuple(0, "Aang", "QmAang", 100, 100, 10),
		contract.CharacterTuple(1, "Zuko", "QmZuko", 200, 200, 40),
		contract.CharacterTuple(2, "Toph", "QmToph", 300, 300, 25),
	)
}

type fixture struct {
	chain   *contract.FakeChain
	wallet  *sdk.FakeProvider
	session *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{chain: newChain(), wallet: sdk.NewFakeProvider(alice)}
	f.session = NewSession(Options{
		Binder: NewAccountBinder(f.wallet, nil),
		Bind: func(ctx context.Context, account sdk.Account) (contract.Handle, error) {
			return f.chain.Handle(account.Address()), nil
		},
		Metrics:    NewMetrics(nil),
		ToastDelay: 30 * time.Millisecond,
	})
	f.start(t)
	return f
}

func (f *fixture) start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.session.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (f *fixture) connect(t *testing.T) State {
	t.Helper()
	require.NoError(t, f.session.Connect(testCtx(t)))
	return f.snapshot(t)
}

func (f *fixture) snapshot(t *testing.T) State {
	t.Helper()
	st, err := f.session.Snapshot(testCtx(t))
	require.NoError(t, err)
	return st
}

func (f *fixture) await(t *testing.T, pred func(State) bool) State {
	t.Helper()
	st, err := f.session.Await(testCtx(t), pred)
	require.NoError(t, err)
	return st
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func contractReverted() error  { return fmt.Errorf("attackBoss: %w", contract.ErrReverted) }
func contractMalformed() error { return fmt.Errorf("%w: hp 9 outside [0, 5]", contract.ErrMalformed) }
