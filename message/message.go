package message

import (
	"context"
	"time"
)

// Message 订阅收到的消息
type Message struct {
	// Channel 消息所在频道
	Channel string `json:"channel"`
	// Pattern 命中的订阅模式
	Pattern string `json:"pattern"`
	// Payload 消息内容
	Payload string `json:"payload"`
	// ReceivedAt 接收时间
	ReceivedAt time.Time `json:"received_at"`
}

// Handler 消息处理函数
type Handler func(ctx context.Context, msg *Message) error
