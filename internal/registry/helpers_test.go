package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitties/internal/entropy"
	"github.com/roach88/kitties/internal/funds"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/notify"
	"github.com/roach88/kitties/internal/state"
)

const (
	alice   kitty.Principal = "alice"
	bob     kitty.Principal = "bob"
	carol   kitty.Principal = "carol"
	holding kitty.Principal = "holding"

	testPrice kitty.Balance = 10
)

func testSeed() entropy.Fixed {
	s := make(entropy.Fixed, 32)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

type fixture struct {
	reg    *Registry
	arena  *state.Arena
	funds  *funds.Memory
	events *notify.Recorder
}

// newFixture builds a registry over an empty arena where alice, bob and
// carol each hold 100.
func newFixture(t *testing.T, tweak func(*Config), opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		arena: state.NewArena(),
		funds: funds.NewMemory(map[kitty.Principal]kitty.Balance{
			alice: 100, bob: 100, carol: 100,
		}),
		events: notify.NewRecorder(),
	}
	cfg := Config{
		Price:      testPrice,
		Holding:    holding,
		Funds:      f.funds,
		Randomness: testSeed(),
		Events:     f.events,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	reg, err := New(context.Background(), f.arena, cfg, opts...)
	require.NoError(t, err)
	f.reg = reg
	return f
}

func (f *fixture) balance(t *testing.T, who kitty.Principal) kitty.Balance {
	t.Helper()
	b, err := f.funds.Balance(context.Background(), who)
	require.NoError(t, err)
	return b
}

// mockFunds is a testify mock of the funds collaborator.
type mockFunds struct {
	mock.Mock
}

func (m *mockFunds) Transfer(ctx context.Context, from, to kitty.Principal, amount kitty.Balance) error {
	args := m.Called(ctx, from, to, amount)
	return args.Error(0)
}

// failCommitBackend discards every transaction at Commit and reports err.
type failCommitBackend struct {
	state.Backend
	err error
}

func (b failCommitBackend) Begin(ctx context.Context) (state.Tx, error) {
	tx, err := b.Backend.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failCommitTx{Tx: tx, err: b.err}, nil
}

type failCommitTx struct {
	state.Tx
	err error
}

func (t failCommitTx) Commit() error {
	_ = t.Tx.Rollback()
	return t.err
}

// fakeObserver records what the registry reports.
type fakeObserver struct {
	ops      []string
	errs     []error
	records  int
	setCalls int
}

func (o *fakeObserver) ObserveOperation(op string, err error) {
	o.ops = append(o.ops, op)
	o.errs = append(o.errs, err)
}

func (o *fakeObserver) SetRecords(n int) {
	o.records = n
	o.setCalls++
}

type failingSeed struct{}

func (failingSeed) Seed(context.Context) ([]byte, error) {
	return nil, errors.New("entropy unavailable")
}

// lookupSink reads the owner of each announced record back from reg.
type lookupSink struct {
	reg    *Registry
	owners []kitty.Principal
	err    error
}

func (s *lookupSink) Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error {
	var id kitty.ID
	switch e := ev.(type) {
	case kitty.RecordCreated:
		id = e.ID
	case kitty.RecordTransferred:
		id = e.ID
	case kitty.RecordListed:
		id = e.ID
	}
	owner, err := s.reg.Owner(ctx, id)
	if err != nil {
		s.err = err
		return err
	}
	s.owners = append(s.owners, owner)
	return nil
}
