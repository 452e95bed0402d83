package redis

import (
	"context"
	"time"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/contract"
	"github.com/dysodeng/remoting/observability"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnFunc 使用借出连接执行的函数
type ConnFunc func(ctx context.Context, conn *redis.Conn) error

// ConnPool 在go-redis连接池之上提供借出/归还检测，连接在WithConn返回前总会归还
type ConnPool struct {
	config  config.PoolConfig
	logger  *zap.Logger
	metrics *observability.MetricsRecorder
}

// NewConnPool 创建连接池包装
func NewConnPool(cfg config.PoolConfig, logger *zap.Logger, metrics *observability.MetricsRecorder) *ConnPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnPool{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// WithConn 从node借出一个专用连接执行fn，返回前归还连接
func (p *ConnPool) WithConn(ctx context.Context, node *redis.Client, fn ConnFunc) (err error) {
	start := time.Now()
	conn := node.Conn()
	defer func() {
		p.release(ctx, conn)
	}()

	if p.config.TestOnBorrow {
		if perr := conn.Ping(ctx).Err(); perr != nil {
			p.metrics.RecordTestFailed(ctx, "borrow")
			p.logger.Warn("connection test on borrow failed", zap.Error(perr))
			return contract.NewClientError(contract.ErrCodeBorrowFailed, "connection test on borrow failed", perr)
		}
	}
	p.metrics.RecordBorrow(ctx, time.Since(start))

	return fn(ctx, conn)
}

// release 归还连接，开启TestOnReturn时先检测
func (p *ConnPool) release(ctx context.Context, conn *redis.Conn) {
	if p.config.TestOnReturn {
		// 调用方的ctx可能已取消，检测不受其影响
		if err := conn.Ping(context.WithoutCancel(ctx)).Err(); err != nil {
			p.metrics.RecordTestFailed(ctx, "return")
			p.logger.Warn("connection test on return failed", zap.Error(err))
		}
	}
	if err := conn.Close(); err != nil {
		p.logger.Warn("release connection failed", zap.Error(err))
	}
}
