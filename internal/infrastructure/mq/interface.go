// Package mq 营销事件总线
// 支持两种实现：ChannelBroker (单机，进程内 channel)、KafkaBroker (分布式)
// 业务层只依赖 EventBus 接口，由配置 kafkaConfig.messageMode 决定具体实现
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// 事件类型
const (
	EventOrderPaid             = "order.paid"
	EventRegistrationConfirmed = "registration.confirmed" // 免费活动报名即确认
	EventGroupBuyJoined        = "groupbuy.joined"
	EventGroupBuySucceeded     = "groupbuy.succeeded"
	EventCollectHelped         = "collect.helped"
	EventCollectCompleted      = "collect.completed"
	EventRewardAwarded         = "reward.awarded"
)

// Event 营销事件
// UserID 为事件归属用户（奖励计算的对象），Kafka 模式下用作分区 key
type Event struct {
	Type       string         `json:"type"`
	UserID     uint           `json:"userId"`
	ActivityID uint           `json:"activityId"`
	BizID      uint           `json:"bizId"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewEvent 创建事件，OccurredAt 取当前时间
func NewEvent(eventType string, userID, activityID, bizID uint) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		ActivityID: activityID,
		BizID:      bizID,
		OccurredAt: time.Now(),
	}
}

// With 附加负载字段
func (e Event) With(key string, value any) Event {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value
	e.Payload = payload
	return e
}

// PayloadUint 读取数值型负载
// 进程内传递时保持原类型，经 Kafka JSON 往返后数字变为 float64
func (e Event) PayloadUint(key string) uint {
	switch v := e.Payload[key].(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	case json.Number:
		n, _ := strconv.ParseUint(v.String(), 10, 64)
		return uint(n)
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return uint(n)
	}
	return 0
}

// Encode 序列化为 JSON
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent 反序列化
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Handler 事件处理函数，返回的错误只记录日志
type Handler func(ctx context.Context, e Event) error

// Publisher 只需要发布事件的业务 Service 依赖此接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// EventBus 事件总线
type EventBus interface {
	Publisher
	// Subscribe 注册事件处理函数，需在 Start 之前调用
	Subscribe(eventType string, h Handler)
	// Start 启动消费循环，阻塞直到 ctx 取消或 Close
	Start(ctx context.Context)
	// Close 关闭总线资源
	Close() error
}
