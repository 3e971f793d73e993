package mq

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ChannelBroker 单机模式事件总线
// Publish 写入带缓冲的 channel，由 Start 启动的消费协程串行分发
type ChannelBroker struct {
	*dispatcher
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

var _ EventBus = (*ChannelBroker)(nil)

// NewChannelBroker 创建单机事件总线
func NewChannelBroker(bufferSize int) *ChannelBroker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelBroker{
		dispatcher: newDispatcher(),
		events:     make(chan Event, bufferSize),
		done:       make(chan struct{}),
	}
}

// Subscribe 注册事件处理函数
func (b *ChannelBroker) Subscribe(eventType string, h Handler) {
	b.subscribe(eventType, h)
}

// Publish 投递事件；缓冲区满时降级为独立协程同步分发，不阻塞调用方
func (b *ChannelBroker) Publish(ctx context.Context, e Event) error {
	select {
	case <-b.done:
		zap.L().Warn("event bus closed, event dropped", zap.String("type", e.Type))
		return nil
	default:
	}

	select {
	case b.events <- e:
	default:
		zap.L().Warn("event channel full, dispatching inline", zap.String("type", e.Type))
		go b.dispatch(context.WithoutCancel(ctx), e)
	}
	return nil
}

// Start 消费循环，ctx 取消或 Close 后排空缓冲区再退出
func (b *ChannelBroker) Start(ctx context.Context) {
	zap.L().Info("channel event bus started")
	for {
		select {
		case e := <-b.events:
			b.dispatch(ctx, e)
		case <-ctx.Done():
			b.drain()
			return
		case <-b.done:
			b.drain()
			return
		}
	}
}

func (b *ChannelBroker) drain() {
	for {
		select {
		case e := <-b.events:
			b.dispatch(context.Background(), e)
		default:
			return
		}
	}
}

// Close 停止接收新事件
func (b *ChannelBroker) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	return nil
}
