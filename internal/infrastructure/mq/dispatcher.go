package mq

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// dispatcher 按事件类型分发给已注册的处理函数
// ChannelBroker 与 KafkaBroker 共用
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[string][]Handler)}
}

func (d *dispatcher) subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// dispatch 依次调用处理函数，单个处理函数出错或 panic 不影响其他处理函数
func (d *dispatcher) dispatch(ctx context.Context, e Event) {
	d.mu.RLock()
	hs := d.handlers[e.Type]
	d.mu.RUnlock()

	for _, h := range hs {
		d.safeCall(ctx, h, e)
	}
}

func (d *dispatcher) safeCall(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("event handler panic: %v", r), zap.String("type", e.Type))
		}
	}()
	if err := h(ctx, e); err != nil {
		zap.L().Error("event handler failed",
			zap.String("type", e.Type),
			zap.Uint("user_id", e.UserID),
			zap.Uint("activity_id", e.ActivityID),
			zap.Error(err),
		)
	}
}
