package mq

import (
	"kindergarten_server/internal/config"
	"kindergarten_server/pkg/constants"
)

// NewEventBus 根据 messageMode 选择实现，默认 channel
func NewEventBus(conf config.KafkaConfig) EventBus {
	if conf.MessageMode == "kafka" {
		return NewKafkaBroker(conf)
	}
	return NewChannelBroker(constants.CHANNEL_SIZE)
}
