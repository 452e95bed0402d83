package contract

import (
	"context"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/message"
	"github.com/dysodeng/remoting/serializer"
)

// Client Redis客户端统一接口
type Client interface {
	// HSet 设置哈希字段
	HSet(ctx context.Context, key, field, value string) (int64, error)
	// HGetAll 获取哈希全部字段
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// Publish 发布消息
	Publish(ctx context.Context, channel, msg string) (int64, error)
	// PublishValue 序列化后发布
	PublishValue(ctx context.Context, channel string, v any) (int64, error)
	// Serializer 发布值使用的序列化器
	Serializer() serializer.Serializer
	// PSubscribe 按模式订阅消息
	PSubscribe(ctx context.Context, handler message.Handler, patterns ...string) error
	// PUnsubscribe 取消模式订阅
	PUnsubscribe(patterns ...string) error
	// Scan 枚举匹配模式的全部键
	Scan(ctx context.Context, pattern string) (KeySet, error)
	// IsConnected 连接是否可用
	IsConnected(ctx context.Context) bool
	// Config 客户端配置
	Config() config.RedisConfig
	// Close 关闭客户端
	Close() error
}
