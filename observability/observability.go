package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Observer 可观测性接口，由外部调用方实现并注入
type Observer interface {
	// GetMeter 获取OpenTelemetry Meter实例
	GetMeter() metric.Meter
	// GetLogger 获取zap Logger实例
	GetLogger() *zap.Logger
}

type nopObserver struct {
	meter  metric.Meter
	logger *zap.Logger
}

func (n *nopObserver) GetMeter() metric.Meter { return n.meter }
func (n *nopObserver) GetLogger() *zap.Logger { return n.logger }

// NewNopObserver 不输出日志和指标的Observer
func NewNopObserver() Observer {
	return &nopObserver{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: zap.NewNop(),
	}
}

// NewObserver 由给定meter和logger组成Observer，nil参数使用noop实现
func NewObserver(meter metric.Meter, logger *zap.Logger) Observer {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("nop")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &nopObserver{meter: meter, logger: logger}
}

// MetricsRecorder 指标记录器
type MetricsRecorder struct {
	logger *zap.Logger
	client string

	// 扫描指标
	scanRounds   metric.Int64Counter
	scannedKeys  metric.Int64Counter
	scanFailures metric.Int64Counter
	scanDuration metric.Float64Histogram

	// 连接池指标
	borrowDuration metric.Float64Histogram
	borrowFailures metric.Int64Counter
	poolTotal      metric.Int64Gauge
	poolIdle       metric.Int64Gauge
	idleTests      metric.Int64Counter

	// 订阅指标
	messagesReceived metric.Int64Counter
	handlerErrors    metric.Int64Counter
}

// NewMetricsRecorder 创建指标记录器，client作为所有指标的client属性
func NewMetricsRecorder(observer Observer, client string) (*MetricsRecorder, error) {
	meter := observer.GetMeter()

	scanRounds, err := meter.Int64Counter(
		"redis_scan_rounds_total",
		metric.WithDescription("Total number of SCAN calls"),
	)
	if err != nil {
		return nil, err
	}

	scannedKeys, err := meter.Int64Counter(
		"redis_scan_keys_total",
		metric.WithDescription("Total number of keys returned by SCAN calls"),
	)
	if err != nil {
		return nil, err
	}

	scanFailures, err := meter.Int64Counter(
		"redis_scan_failures_total",
		metric.WithDescription("Total number of failed key enumerations"),
	)
	if err != nil {
		return nil, err
	}

	scanDuration, err := meter.Float64Histogram(
		"redis_scan_duration_seconds",
		metric.WithDescription("Full key enumeration duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	borrowDuration, err := meter.Float64Histogram(
		"redis_pool_borrow_duration_seconds",
		metric.WithDescription("Time spent checking a connection out of the pool"),
	)
	if err != nil {
		return nil, err
	}

	borrowFailures, err := meter.Int64Counter(
		"redis_pool_test_failures_total",
		metric.WithDescription("Total number of failed connection tests"),
	)
	if err != nil {
		return nil, err
	}

	poolTotal, err := meter.Int64Gauge(
		"redis_pool_connections",
		metric.WithDescription("Current number of connections in the pool"),
	)
	if err != nil {
		return nil, err
	}

	poolIdle, err := meter.Int64Gauge(
		"redis_pool_idle_connections",
		metric.WithDescription("Current number of idle connections in the pool"),
	)
	if err != nil {
		return nil, err
	}

	idleTests, err := meter.Int64Counter(
		"redis_pool_idle_tests_total",
		metric.WithDescription("Total number of idle connection tests"),
	)
	if err != nil {
		return nil, err
	}

	messagesReceived, err := meter.Int64Counter(
		"redis_pubsub_messages_received_total",
		metric.WithDescription("Total number of pub/sub messages received"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter(
		"redis_pubsub_handler_errors_total",
		metric.WithDescription("Total number of pub/sub handler errors"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsRecorder{
		logger:           observer.GetLogger(),
		client:           client,
		scanRounds:       scanRounds,
		scannedKeys:      scannedKeys,
		scanFailures:     scanFailures,
		scanDuration:     scanDuration,
		borrowDuration:   borrowDuration,
		borrowFailures:   borrowFailures,
		poolTotal:        poolTotal,
		poolIdle:         poolIdle,
		idleTests:        idleTests,
		messagesReceived: messagesReceived,
		handlerErrors:    handlerErrors,
	}, nil
}

func (m *MetricsRecorder) attrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(append([]attribute.KeyValue{attribute.String("client", m.client)}, kv...)...)
}

// RecordScanRound 记录一次SCAN调用
func (m *MetricsRecorder) RecordScanRound(ctx context.Context, keys int) {
	if m == nil {
		return
	}
	m.scanRounds.Add(ctx, 1, m.attrs())
	m.scannedKeys.Add(ctx, int64(keys), m.attrs())
}

// RecordScanCompleted 记录一次完整枚举
func (m *MetricsRecorder) RecordScanCompleted(ctx context.Context, pattern string, duration time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Record(ctx, duration.Seconds(), m.attrs(attribute.String("pattern", pattern)))
}

// RecordScanFailed 记录枚举失败
func (m *MetricsRecorder) RecordScanFailed(ctx context.Context, pattern string, err error) {
	if m == nil {
		return
	}
	m.scanFailures.Add(ctx, 1, m.attrs(attribute.String("pattern", pattern)))
	if m.logger != nil {
		m.logger.Warn("scan failed",
			zap.String("client", m.client),
			zap.String("pattern", pattern),
			zap.Error(err),
		)
	}
}

// RecordBorrow 记录借出连接耗时
func (m *MetricsRecorder) RecordBorrow(ctx context.Context, duration time.Duration) {
	if m == nil {
		return
	}
	m.borrowDuration.Record(ctx, duration.Seconds(), m.attrs())
}

// RecordTestFailed 记录连接检测失败，stage为borrow/return/idle
func (m *MetricsRecorder) RecordTestFailed(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.borrowFailures.Add(ctx, 1, m.attrs(attribute.String("stage", stage)))
}

// RecordPoolSize 记录连接池大小
func (m *MetricsRecorder) RecordPoolSize(ctx context.Context, total, idle int64) {
	if m == nil {
		return
	}
	m.poolTotal.Record(ctx, total, m.attrs())
	m.poolIdle.Record(ctx, idle, m.attrs())
}

// RecordIdleTest 记录一次空闲连接检测
func (m *MetricsRecorder) RecordIdleTest(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.idleTests.Add(ctx, 1, m.attrs(attribute.String("result", result)))
}

// RecordMessageReceived 记录收到的订阅消息
func (m *MetricsRecorder) RecordMessageReceived(ctx context.Context, pattern string) {
	if m == nil {
		return
	}
	m.messagesReceived.Add(ctx, 1, m.attrs(attribute.String("pattern", pattern)))
}

// RecordHandlerError 记录消息处理失败
func (m *MetricsRecorder) RecordHandlerError(ctx context.Context, pattern string) {
	if m == nil {
		return
	}
	m.handlerErrors.Add(ctx, 1, m.attrs(attribute.String("pattern", pattern)))
}
