package redis

import (
	"context"
	"time"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/observability"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NodesFunc 返回需要检测的节点客户端
type NodesFunc func(ctx context.Context) ([]*redis.Client, error)

// IdleValidator 空闲连接检测器
//
// 每隔TimeBetweenEvictionRuns借出最多NumTestsPerEvictionRun个空闲连接并PING，
// 超过ConnMaxIdleTime的连接在借出时由go-redis关闭，PING失败的连接归还时被丢弃。
type IdleValidator struct {
	nodes    NodesFunc
	interval time.Duration
	tests    int
	logger   *zap.Logger
	metrics  *observability.MetricsRecorder
}

// NewIdleValidator 创建空闲连接检测器
func NewIdleValidator(cfg config.PoolConfig, nodes NodesFunc, logger *zap.Logger, metrics *observability.MetricsRecorder) *IdleValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdleValidator{
		nodes:    nodes,
		interval: cfg.TimeBetweenEvictionRuns,
		tests:    cfg.TestsPerEvictionRun(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Start 启动检测循环，ctx取消后返回
func (v *IdleValidator) Start(ctx context.Context) {
	if v.interval <= 0 {
		return
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			v.logger.Info("idle validator stopped")
			return
		case <-ticker.C:
			tested, failed := v.RunOnce(ctx)
			if failed > 0 {
				v.logger.Warn("idle connections failed validation",
					zap.Int("tested", tested),
					zap.Int("failed", failed),
				)
			} else if tested > 0 {
				v.logger.Debug("idle connections validated", zap.Int("tested", tested))
			}
		}
	}
}

// RunOnce 执行一次检测，返回检测数与失败数
func (v *IdleValidator) RunOnce(ctx context.Context) (tested, failed int) {
	nodes, err := v.nodes(ctx)
	if err != nil {
		v.logger.Error("list nodes for idle validation failed", zap.Error(err))
		return 0, 0
	}

	var total, idle int64
	for _, node := range nodes {
		t, f := v.validateNode(ctx, node)
		tested += t
		failed += f

		stats := node.PoolStats()
		total += int64(stats.TotalConns)
		idle += int64(stats.IdleConns)
	}
	v.metrics.RecordPoolSize(ctx, total, idle)
	return tested, failed
}

// validateNode 同时借出多个空闲连接，避免反复检测同一个连接
func (v *IdleValidator) validateNode(ctx context.Context, node *redis.Client) (tested, failed int) {
	n := v.tests
	if idle := int(node.PoolStats().IdleConns); idle < n {
		n = idle
	}
	if n <= 0 {
		return 0, 0
	}

	conns := make([]*redis.Conn, 0, n)
	defer func() {
		for _, conn := range conns {
			if err := conn.Close(); err != nil {
				v.logger.Warn("release validated connection failed", zap.Error(err))
			}
		}
	}()

	for i := 0; i < n; i++ {
		conn := node.Conn()
		conns = append(conns, conn)

		err := conn.Ping(ctx).Err()
		tested++
		v.metrics.RecordIdleTest(ctx, err == nil)
		if err != nil {
			failed++
			v.metrics.RecordTestFailed(ctx, "idle")
		}
	}
	return tested, failed
}
