package mq

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"kindergarten_server/internal/config"
)

// KafkaBroker 分布式模式事件总线
// Producer 按 UserID 做 Hash 分区，同一用户的事件落在同一分区保持顺序
// Consumer 使用消费者组，处理完成后再提交 offset
type KafkaBroker struct {
	*dispatcher
	Producer *kafka.Writer
	Consumer *kafka.Reader
}

var _ EventBus = (*KafkaBroker)(nil)

// NewKafkaBroker 根据配置创建 Writer / Reader
func NewKafkaBroker(conf config.KafkaConfig) *KafkaBroker {
	timeout := conf.Timeout * time.Second
	return &KafkaBroker{
		dispatcher: newDispatcher(),
		Producer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Topic:                  conf.EventTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		Consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{conf.HostPort},
			Topic:          conf.EventTopic,
			GroupID:        conf.GroupID,
			CommitInterval: timeout,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// Subscribe 注册事件处理函数
func (k *KafkaBroker) Subscribe(eventType string, h Handler) {
	k.subscribe(eventType, h)
}

// Publish 写入 Kafka，key 为用户 ID
func (k *KafkaBroker) Publish(ctx context.Context, e Event) error {
	value, err := e.Encode()
	if err != nil {
		return err
	}
	return k.Producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(e.UserID), 10)),
		Value: value,
	})
}

// Start 消费循环
func (k *KafkaBroker) Start(ctx context.Context) {
	zap.L().Info("kafka event bus started", zap.String("topic", k.Consumer.Config().Topic))
	for {
		msg, err := k.Consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("kafka fetch message failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		zap.L().Debug("kafka event received",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.ByteString("key", msg.Key),
		)

		e, err := DecodeEvent(msg.Value)
		if err != nil {
			zap.L().Error("decode event failed", zap.Error(err), zap.ByteString("value", msg.Value))
		} else {
			k.dispatch(ctx, e)
		}

		if err := k.Consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			zap.L().Error("kafka commit failed", zap.Error(err))
		}
	}
}

// Close 关闭 Writer 与 Reader
func (k *KafkaBroker) Close() error {
	return errors.Join(k.Producer.Close(), k.Consumer.Close())
}
