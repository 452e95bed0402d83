package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/contract"
	"github.com/dysodeng/remoting/message"
	"github.com/dysodeng/remoting/observability"
	"github.com/dysodeng/remoting/scanner"
	"github.com/dysodeng/remoting/serializer"
	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options 客户端可选项
type Options struct {
	// Tracing 是否启用OpenTelemetry链路追踪
	Tracing bool
	// Middlewares 订阅消息处理中间件
	Middlewares []contract.Middleware
	// SubscribeWorkers 订阅消息处理协程数，默认1，保证消息按接收顺序处理
	SubscribeWorkers int
	// SubscribeBuffer 订阅消息缓冲区大小
	SubscribeBuffer int
	// PingTimeout 创建时连通性检测超时
	PingTimeout time.Duration
}

// Redis Redis客户端实现
type Redis struct {
	id         string
	client     redis.UniversalClient
	config     config.RedisConfig
	pool       *ConnPool
	scanner    *scanner.Scanner
	serializer serializer.Serializer
	subscriber *Subscriber
	validator  *IdleValidator
	recorder   *observability.MetricsRecorder
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewRedis 创建Redis客户端并检测连通性
func NewRedis(cfg config.RedisConfig, observer observability.Observer, opts Options) (*Redis, error) {
	cfg.SetDefaults()
	if !cfg.Mode.IsValid() {
		return nil, contract.NewClientError(
			contract.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported redis mode: %s", cfg.Mode),
			nil,
		)
	}

	client, err := NewClientFactory(cfg).CreateClient()
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
		}
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, contract.NewClientError(contract.ErrCodeConnectionFailed, "failed to ping redis", err)
	}

	r, err := newRedis(client, cfg, observer, opts)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

// newRedis 组装客户端组件，启动后台检测
func newRedis(client redis.UniversalClient, cfg config.RedisConfig, observer observability.Observer, opts Options) (*Redis, error) {
	codec, err := serializer.NewSerializer(serializer.Type(cfg.Serialization))
	if err != nil {
		return nil, contract.NewClientError(contract.ErrCodeInvalidConfig, "invalid serialization", err)
	}

	id := uuid.New().String()
	logger := observer.GetLogger().With(
		zap.String("client", id),
		zap.String("mode", cfg.Mode.String()),
	)

	recorder, err := observability.NewMetricsRecorder(observer, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	workers := NewWorkerPool(opts.SubscribeWorkers, opts.SubscribeBuffer, logger, recorder)
	workers.Start()

	mainCtx, mainCancel := context.WithCancel(context.Background())
	r := &Redis{
		id:         id,
		client:     client,
		config:     cfg,
		pool:       NewConnPool(cfg.Pool, logger, recorder),
		scanner:    scanner.NewScanner(logger, recorder),
		serializer: codec,
		subscriber: NewSubscriber(client, workers, contract.NewMiddlewareChain(opts.Middlewares...), logger, recorder),
		recorder:   recorder,
		logger:     logger,
		ctx:        mainCtx,
		cancel:     mainCancel,
	}

	if cfg.Pool.IdleValidationEnabled() {
		r.validator = NewIdleValidator(cfg.Pool, r.nodes, logger, recorder)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.validator.Start(mainCtx)
		}()
	}

	logger.Info("redis client created",
		zap.Strings("addrs", cfg.Addrs()),
		zap.Bool("test_on_borrow", cfg.Pool.TestOnBorrow),
		zap.Bool("test_while_idle", cfg.Pool.TestWhileIdle),
	)
	return r, nil
}

// ID 客户端实例ID
func (r *Redis) ID() string {
	return r.id
}

// Config 客户端配置
func (r *Redis) Config() config.RedisConfig {
	return r.config
}

// PoolConfig 连接池配置
func (r *Redis) PoolConfig() config.PoolConfig {
	return r.config.Pool
}

// HSet 设置哈希字段
func (r *Redis) HSet(ctx context.Context, key, field, value string) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}
	return r.client.HSet(ctx, key, field, value).Result()
}

// HGetAll 获取哈希全部字段
func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := r.checkClosed(); err != nil {
		return nil, err
	}
	return r.client.HGetAll(ctx, key).Result()
}

// Publish 发布消息
func (r *Redis) Publish(ctx context.Context, channel, msg string) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}
	return r.client.Publish(ctx, channel, msg).Result()
}

// PublishValue 按配置的序列化方式编码v后发布
func (r *Redis) PublishValue(ctx context.Context, channel string, v any) (int64, error) {
	if err := r.checkClosed(); err != nil {
		return 0, err
	}
	payload, err := r.serializer.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("marshal value for channel %s: %w", channel, err)
	}
	return r.client.Publish(ctx, channel, payload).Result()
}

// Serializer 发布值使用的序列化器，订阅方用于解码消息内容
func (r *Redis) Serializer() serializer.Serializer {
	return r.serializer
}

// PSubscribe 按模式订阅消息
func (r *Redis) PSubscribe(ctx context.Context, handler message.Handler, patterns ...string) error {
	if err := r.checkClosed(); err != nil {
		return err
	}
	return r.subscriber.PSubscribe(ctx, handler, patterns...)
}

// PUnsubscribe 取消模式订阅
func (r *Redis) PUnsubscribe(patterns ...string) error {
	if err := r.checkClosed(); err != nil {
		return err
	}
	return r.subscriber.PUnsubscribe(patterns...)
}

// Scan 枚举匹配模式的全部键
//
// 集群模式下在每个主节点上分别枚举后合并，任一节点失败则整体失败。
func (r *Redis) Scan(ctx context.Context, pattern string) (contract.KeySet, error) {
	if err := r.checkClosed(); err != nil {
		return nil, err
	}

	nodes, err := r.masters(ctx)
	if err != nil {
		return nil, contract.NewClientError(contract.ErrCodeScanFailed, "list master nodes failed", err)
	}

	return scanEach(ctx, nodes, func(ctx context.Context, node *redis.Client) (contract.KeySet, error) {
		var keys contract.KeySet
		err := r.pool.WithConn(ctx, node, func(ctx context.Context, conn *redis.Conn) error {
			var err error
			keys, err = r.scanner.ScanAll(ctx, NewScanConn(conn, r.config.ScanCount), pattern)
			return err
		})
		return keys, err
	})
}

// scanEach 依次枚举每个节点并合并结果，任一节点失败时丢弃全部结果
func scanEach[N any](ctx context.Context, nodes []N, scan func(context.Context, N) (contract.KeySet, error)) (contract.KeySet, error) {
	result := contract.NewKeySet()
	for _, node := range nodes {
		keys, err := scan(ctx, node)
		if err != nil {
			if contract.IsCode(err, contract.ErrCodeScanFailed) || contract.IsCode(err, contract.ErrCodeInvalidArgument) {
				return nil, err
			}
			return nil, contract.NewClientError(contract.ErrCodeScanFailed, "scan node failed", err)
		}
		result.Merge(keys)
	}
	return result, nil
}

// IsConnected 连接是否可用
func (r *Redis) IsConnected(ctx context.Context) bool {
	if r.checkClosed() != nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

// masters 返回执行扫描的节点，单机与哨兵模式为客户端本身
func (r *Redis) masters(ctx context.Context) ([]*redis.Client, error) {
	switch c := r.client.(type) {
	case *redis.Client:
		return []*redis.Client{c}, nil
	case *redis.ClusterClient:
		var (
			mu    sync.Mutex
			nodes []*redis.Client
		)
		err := c.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			mu.Lock()
			nodes = append(nodes, node)
			mu.Unlock()
			return nil
		})
		return nodes, err
	default:
		return nil, fmt.Errorf("unsupported redis client type %T", r.client)
	}
}

// nodes 返回需要空闲检测的节点，集群模式包含从节点
func (r *Redis) nodes(ctx context.Context) ([]*redis.Client, error) {
	c, ok := r.client.(*redis.ClusterClient)
	if !ok {
		return r.masters(ctx)
	}

	var (
		mu    sync.Mutex
		nodes []*redis.Client
	)
	err := c.ForEachShard(ctx, func(ctx context.Context, node *redis.Client) error {
		mu.Lock()
		nodes = append(nodes, node)
		mu.Unlock()
		return nil
	})
	return nodes, err
}

func (r *Redis) checkClosed() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return contract.ErrClientClosed
	}
	return nil
}

// Close 关闭客户端
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	r.cancel()  // 停止空闲检测
	r.wg.Wait() // 等待后台协程结束

	if err := r.subscriber.Close(); err != nil {
		r.logger.Warn("close subscriber failed", zap.Error(err))
	}

	r.logger.Info("redis client closed")
	return r.client.Close()
}
