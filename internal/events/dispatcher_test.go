package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, changed []uint64
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		created = append(created, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		changed = append(changed, e.TicketID)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, Event{Type: EventTicketCreated, TicketID: 1}))
	require.NoError(t, d.Publish(ctx, Event{Type: EventTicketStatusChanged, TicketID: 1}))
	require.NoError(t, d.Publish(ctx, Event{Type: EventStaffMemberAdded}))

	assert.Equal(t, []uint64{1}, created)
	assert.Equal(t, []uint64{1}, changed)
}

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventStaffMemberAdded, func(context.Context, Event) error {
		panic("subscriber bug")
	})
	d.Subscribe(EventStaffMemberAdded, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStaffMemberAdded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscriber bug")
	assert.True(t, delivered)
}
