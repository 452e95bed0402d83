package remoting

import (
	"fmt"

	"github.com/dysodeng/remoting/adapters/redis"
	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/contract"
	"github.com/dysodeng/remoting/observability"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Protocol 支持的地址协议
const Protocol = "redis"

// Factory 客户端工厂
type Factory struct {
	url      *config.URL
	source   config.Source
	observer observability.Observer
	options  redis.Options
}

// FactoryOption 工厂选项函数类型
type FactoryOption func(*Factory)

// WithObserver 设置Observer选项
func WithObserver(observer observability.Observer) FactoryOption {
	return func(f *Factory) {
		f.observer = observer
	}
}

// WithSource 设置额外的参数来源，优先于地址中的参数
func WithSource(src config.Source) FactoryOption {
	return func(f *Factory) {
		f.source = src
	}
}

// WithTracing 启用链路追踪
func WithTracing() FactoryOption {
	return func(f *Factory) {
		f.options.Tracing = true
	}
}

// WithMiddlewares 设置订阅消息处理中间件
func WithMiddlewares(middlewares ...contract.Middleware) FactoryOption {
	return func(f *Factory) {
		f.options.Middlewares = append(f.options.Middlewares, middlewares...)
	}
}

// WithSubscribeWorkers 设置订阅消息处理协程数与缓冲区大小
func WithSubscribeWorkers(workers, buffer int) FactoryOption {
	return func(f *Factory) {
		f.options.SubscribeWorkers = workers
		f.options.SubscribeBuffer = buffer
	}
}

// defaultObserver 默认的Observer实现
type defaultObserver struct {
	meter  metric.Meter
	logger *zap.Logger
}

// GetMeter 获取默认的Meter（noop实现）
func (d *defaultObserver) GetMeter() metric.Meter {
	return d.meter
}

// GetLogger 获取默认的Logger
func (d *defaultObserver) GetLogger() *zap.Logger {
	return d.logger
}

// newDefaultObserver 创建默认Observer
func newDefaultObserver() observability.Observer {
	// 创建一个基本的logger，如果失败则使用nop logger
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	return &defaultObserver{
		meter:  noop.NewMeterProvider().Meter("default"),
		logger: logger,
	}
}

// NewFactory 创建客户端工厂
func NewFactory(u *config.URL, options ...FactoryOption) *Factory {
	factory := &Factory{
		url:      u,
		observer: newDefaultObserver(),
	}

	for _, option := range options {
		option(factory)
	}

	return factory
}

// RedisConfig 由地址与参数来源得到的Redis配置
func (factory *Factory) RedisConfig() config.RedisConfig {
	return config.BuildRedisConfig(factory.url, factory.source)
}

// CreateClient 创建客户端
func (factory *Factory) CreateClient() (contract.Client, error) {
	if factory.url == nil {
		return nil, contract.NewClientError(contract.ErrCodeInvalidConfig, "url is nil", nil)
	}
	if factory.url.Protocol != Protocol {
		return nil, contract.NewClientError(
			contract.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported protocol: %s", factory.url.Protocol),
			nil,
		)
	}

	client, err := redis.NewRedis(factory.RedisConfig(), factory.observer, factory.options)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewClientFromURL 解析地址并创建客户端
func NewClientFromURL(rawURL string, options ...FactoryOption) (contract.Client, error) {
	u, err := config.ParseURL(rawURL)
	if err != nil {
		return nil, contract.NewClientError(contract.ErrCodeInvalidConfig, "invalid url", err)
	}
	return NewFactory(u, options...).CreateClient()
}
