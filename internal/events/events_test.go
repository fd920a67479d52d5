package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, Event) error {
	p.calls++
	return errors.New("redis down")
}

func TestNotify_SwallowsPublishErrors(t *testing.T) {
	pub := &failingPublisher{}
	Notify(context.Background(), pub, nil, Event{Resource: "contents", Action: ActionCreated, ID: 1})
	require.Equal(t, 1, pub.calls)

	Notify(context.Background(), nil, nil, Event{Resource: "contents"})
}

func TestDecode(t *testing.T) {
	ev, err := Decode(`{"resource":"seos","action":"updated","id":3,"at":"2026-01-02T03:04:05Z"}`)
	require.NoError(t, err)
	require.Equal(t, "seos", ev.Resource)
	require.Equal(t, ActionUpdated, ev.Action)
	require.EqualValues(t, 3, ev.ID)
	require.True(t, ev.At.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	_, err = Decode(`{"action":"updated"}`)
	require.Error(t, err)

	_, err = Decode(`nope`)
	require.Error(t, err)
}
