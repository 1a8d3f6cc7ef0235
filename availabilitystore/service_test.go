package availabilitystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBus replays a scripted sequence of Events and then blocks until
// the context is canceled, mirroring the request/response double
// pattern used throughout the teacher lineage's _test.go files.
type fakeBus struct {
	events chan Event
}

func newFakeBus() *fakeBus {
	return &fakeBus{events: make(chan Event, 16)}
}

func (b *fakeBus) push(ev Event) {
	b.events <- ev
}

func (b *fakeBus) Receive(ctx context.Context) (Event, error) {
	select {
	case ev := <-b.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

type fakeRuntimeClient struct {
	included map[Hash][]CandidateEvent
}

func (c *fakeRuntimeClient) CandidateEvents(ctx context.Context, blockHash Hash) ([]CandidateEvent, error) {
	return c.included[blockHash], nil
}

type fakeChainClient struct {
	numbers map[Hash]uint64
}

func (c *fakeChainClient) BlockNumber(ctx context.Context, blockHash Hash) (uint64, error) {
	return c.numbers[blockHash], nil
}

func TestServiceStoreAndQueryAvailableData(t *testing.T) {
	db := setupDB(t)
	clock := newMockClock(time.Now())
	bus := newFakeBus()
	svc := &Service{
		store:         NewStore(db, DefaultPruningConfig(), NewDefaultCoder(), clock, nil),
		bus:           bus,
		runtimeClient: &fakeRuntimeClient{},
		chainClient:   &fakeChainClient{},
		clock:         clock,
	}
	svc.Start()
	defer svc.Stop()

	hash := hashOf(1)
	storeReply := make(chan error, 1)
	bus.push(Event{Message: StoreAvailableDataMessage{
		CandidateHash: hash,
		NValidators:   3,
		Data:          AvailableData{Bytes: []byte("pov"), BlockNumber: 1},
		Reply:         storeReply,
	}})
	require.NoError(t, <-storeReply)

	queryReply := make(chan *AvailableData, 1)
	bus.push(Event{Message: QueryAvailableData{CandidateHash: hash, Reply: queryReply}})
	got := <-queryReply
	require.NotNil(t, got)
	require.Equal(t, []byte("pov"), got.Bytes)
}

func TestServiceBlockActivatedThenFinalizedRearmsDeadline(t *testing.T) {
	db := setupDB(t)
	clock := newMockClock(time.Now())
	leaf := hashOf(42)
	hash := hashOf(1)

	bus := newFakeBus()
	svc := &Service{
		store: NewStore(db, DefaultPruningConfig(), NewDefaultCoder(), clock, nil),
		bus:   bus,
		runtimeClient: &fakeRuntimeClient{included: map[Hash][]CandidateEvent{
			leaf: {{CandidateHash: hash}},
		}},
		chainClient: &fakeChainClient{},
		clock:       clock,
	}
	svc.Start()
	defer svc.Stop()

	storeReply := make(chan error, 1)
	bus.push(Event{Message: StoreAvailableDataMessage{
		CandidateHash: hash,
		NValidators:   3,
		Data:          AvailableData{Bytes: []byte("pov"), BlockNumber: 1},
		Reply:         storeReply,
	}})
	require.NoError(t, <-storeReply)

	bus.push(Event{Signal: ActiveLeavesSignal{Activated: []Hash{leaf}}})
	// Give the loop a moment to process the signal before inspecting
	// state directly; Stop() below still guarantees the loop has
	// drained its goroutine by the time the test function returns.
	time.Sleep(20 * time.Millisecond)

	bus.push(Event{Signal: BlockFinalizedSignal{BlockHash: leaf, BlockNumber: 1}})
	time.Sleep(20 * time.Millisecond)

	svc.Stop()

	state, pruneAt, found := svc.store.findPoVState(hash)
	require.True(t, found)
	require.Equal(t, StateFinalized, state)
	wake, ok := pruneAt.Time()
	require.True(t, ok)
	require.True(t, wake.After(clock.Now()))
}
