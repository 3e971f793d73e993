package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
)

func TestChannelBroker_DispatchesByType(t *testing.T) {
	b := NewChannelBroker(8)

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{}, 2)
	b.Subscribe(EventCollectHelped, func(ctx context.Context, e Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	require.NoError(t, b.Publish(ctx, NewEvent(EventOrderPaid, 1, 2, 3)))
	require.NoError(t, b.Publish(ctx, NewEvent(EventCollectHelped, 7, 8, 9)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, uint(7), got[0].UserID)
	assert.Equal(t, uint(8), got[0].ActivityID)
}

func TestChannelBroker_HandlerFailureDoesNotStopConsumer(t *testing.T) {
	b := NewChannelBroker(8)
	calls := make(chan string, 4)

	b.Subscribe(EventRewardAwarded, func(ctx context.Context, e Event) error {
		calls <- "err"
		return errors.New("boom")
	})
	b.Subscribe(EventRewardAwarded, func(ctx context.Context, e Event) error {
		calls <- "panic"
		panic("handler panic")
	})
	b.Subscribe(EventRewardAwarded, func(ctx context.Context, e Event) error {
		calls <- "ok"
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	require.NoError(t, b.Publish(ctx, NewEvent(EventRewardAwarded, 1, 1, 1)))

	var seen []string
	for i := 0; i < 3; i++ {
		select {
		case c := <-calls:
			seen = append(seen, c)
		case <-time.After(2 * time.Second):
			t.Fatalf("only %v handlers ran", seen)
		}
	}
	assert.Equal(t, []string{"err", "panic", "ok"}, seen)
}

func TestChannelBroker_CloseStopsStart(t *testing.T) {
	b := NewChannelBroker(1)
	stopped := make(chan struct{})
	go func() {
		b.Start(context.Background())
		close(stopped)
	}()

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Close")
	}
	// 关闭后发布不报错，事件被丢弃
	assert.NoError(t, b.Publish(context.Background(), NewEvent(EventOrderPaid, 1, 1, 1)))
}

func TestEventEncodeDecode(t *testing.T) {
	e := NewEvent(EventGroupBuyJoined, 3, 4, 5)
	e.Payload = map[string]any{"orderNo": "GB1"}

	data, err := e.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "groupbuy.joined", raw["type"])

	back, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, e.Type, back.Type)
	assert.Equal(t, e.UserID, back.UserID)
	assert.Equal(t, "GB1", back.Payload["orderNo"])
}

func TestEventPayloadUint_SurvivesJSON(t *testing.T) {
	e := NewEvent(EventGroupBuyJoined, 3, 4, 5).With("initiatorId", uint(42)).With("note", "x")
	assert.EqualValues(t, 42, e.PayloadUint("initiatorId"))
	assert.Zero(t, e.PayloadUint("note"))
	assert.Zero(t, e.PayloadUint("missing"))

	data, err := e.Encode()
	require.NoError(t, err)
	back, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.EqualValues(t, 42, back.PayloadUint("initiatorId"))

	// With 不修改原事件
	base := NewEvent(EventOrderPaid, 1, 1, 1)
	_ = base.With("k", 1)
	assert.Nil(t, base.Payload)
}

func TestNewEventBus_SelectsByMode(t *testing.T) {
	_, ok := NewEventBus(config.KafkaConfig{MessageMode: "channel"}).(*ChannelBroker)
	assert.True(t, ok)
	_, ok = NewEventBus(config.KafkaConfig{}).(*ChannelBroker)
	assert.True(t, ok)
}
