// Package scanner 基于游标的键枚举
//
// 每轮调用SCAN返回一批匹配的键和下一个游标，服务端返回起始游标时表示枚举结束。
// 单轮可能返回空批次而游标不为起始值，因此只能以游标判断结束。
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/dysodeng/remoting/contract"
	"github.com/dysodeng/remoting/observability"
	"go.uber.org/zap"
)

// Cursor 扫描游标
type Cursor string

// StartCursor 起始游标，服务端返回该值时表示枚举完成
const StartCursor Cursor = "0"

// Conn 支持游标扫描的连接
type Conn interface {
	Scan(ctx context.Context, cursor Cursor, match string) (next Cursor, keys []string, err error)
}

// ConnFunc 函数形式的Conn
type ConnFunc func(ctx context.Context, cursor Cursor, match string) (Cursor, []string, error)

// Scan 实现Conn接口
func (f ConnFunc) Scan(ctx context.Context, cursor Cursor, match string) (Cursor, []string, error) {
	return f(ctx, cursor, match)
}

// Scanner 游标扫描器
type Scanner struct {
	logger  *zap.Logger
	metrics *observability.MetricsRecorder
}

// NewScanner 创建扫描器，metrics可以为nil
func NewScanner(logger *zap.Logger, metrics *observability.MetricsRecorder) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger, metrics: metrics}
}

var defaultScanner = NewScanner(nil, nil)

// ScanAll 使用默认扫描器枚举全部匹配的键
func ScanAll(ctx context.Context, conn Conn, pattern string) (contract.KeySet, error) {
	return defaultScanner.ScanAll(ctx, conn, pattern)
}

// ScanAll 枚举conn上全部匹配pattern的键
//
// 任意一轮失败时返回ErrCodeScanFailed错误并丢弃已累积的结果。
// 每轮开始前检查ctx，取消后不再发起新的调用。
func (s *Scanner) ScanAll(ctx context.Context, conn Conn, pattern string) (contract.KeySet, error) {
	if pattern == "" {
		return nil, contract.NewClientError(contract.ErrCodeInvalidArgument, "scan pattern is empty", nil)
	}

	start := time.Now()
	result := contract.NewKeySet()
	cursor := StartCursor
	rounds := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, pattern, rounds, err)
		}

		next, keys, err := conn.Scan(ctx, cursor, pattern)
		if err != nil {
			return nil, s.fail(ctx, pattern, rounds, err)
		}
		rounds++
		result.Add(keys...)
		s.metrics.RecordScanRound(ctx, len(keys))

		if next == StartCursor {
			break
		}
		cursor = next
	}

	duration := time.Since(start)
	s.metrics.RecordScanCompleted(ctx, pattern, duration)
	s.logger.Debug("scan completed",
		zap.String("pattern", pattern),
		zap.Int("rounds", rounds),
		zap.Int("keys", result.Len()),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (s *Scanner) fail(ctx context.Context, pattern string, rounds int, cause error) error {
	s.metrics.RecordScanFailed(ctx, pattern, cause)
	return contract.NewClientError(
		contract.ErrCodeScanFailed,
		fmt.Sprintf("scan %q failed after %d rounds", pattern, rounds),
		cause,
	)
}
