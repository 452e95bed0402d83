package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// warmUp 同时借出n个连接后归还，使连接池中保留n个空闲连接
func warmUp(t *testing.T, node *redis.Client, n int) {
	t.Helper()
	conns := make([]*redis.Conn, 0, n)
	for i := 0; i < n; i++ {
		conn := node.Conn()
		require.NoError(t, conn.Ping(context.Background()).Err())
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		require.NoError(t, conn.Close())
	}
	require.Equal(t, uint32(n), node.PoolStats().IdleConns)
}

func staticNodes(nodes ...*redis.Client) NodesFunc {
	return func(ctx context.Context) ([]*redis.Client, error) {
		return nodes, nil
	}
}

func TestIdleValidator_RunOnce(t *testing.T) {
	tests := []struct {
		name       string
		idle       int
		perRun     string
		wantTested int
	}{
		{"bounded by tests per run", 4, "2", 2},
		{"bounded by idle connections", 1, "5", 1},
		{"default tests per run", 5, "", config.DefaultNumTestsPerEvictionRun},
		{"no idle connections", 0, "3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, node := newTestNode(t)
			if tt.idle > 0 {
				warmUp(t, node, tt.idle)
			}

			cfg := config.BuildPoolConfig(config.Params{
				config.TestWhileIdleKey:           "true",
				config.TimeBetweenEvictionRunsKey: "1000",
				config.NumTestsPerEvictionRunKey:  tt.perRun,
			})
			v := NewIdleValidator(cfg, staticNodes(node), zaptest.NewLogger(t), nil)

			tested, failed := v.RunOnce(context.Background())
			assert.Equal(t, tt.wantTested, tested)
			assert.Zero(t, failed)
			assertReleased(t, node)
		})
	}
}

func TestIdleValidator_DeadServer(t *testing.T) {
	mr, node := newTestNode(t)
	warmUp(t, node, 2)
	mr.Close()

	cfg := config.PoolConfig{TestWhileIdle: true, TimeBetweenEvictionRuns: time.Second}
	v := NewIdleValidator(cfg, staticNodes(node), zaptest.NewLogger(t), nil)

	tested, failed := v.RunOnce(context.Background())
	assert.Equal(t, 2, tested)
	assert.Equal(t, 2, failed)
}

func TestIdleValidator_NodesError(t *testing.T) {
	v := NewIdleValidator(config.PoolConfig{}, func(ctx context.Context) ([]*redis.Client, error) {
		return nil, errors.New("cluster slots unavailable")
	}, zaptest.NewLogger(t), nil)

	tested, failed := v.RunOnce(context.Background())
	assert.Zero(t, tested)
	assert.Zero(t, failed)
}

func TestIdleValidator_Metrics(t *testing.T) {
	_, node := newTestNode(t)
	warmUp(t, node, 3)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder, err := observability.NewMetricsRecorder(
		observability.NewObserver(provider.Meter("idle-test"), zaptest.NewLogger(t)),
		"idle",
	)
	require.NoError(t, err)

	cfg := config.PoolConfig{TestWhileIdle: true, TimeBetweenEvictionRuns: time.Second, NumTestsPerEvictionRun: 2}
	v := NewIdleValidator(cfg, staticNodes(node), zaptest.NewLogger(t), recorder)
	v.RunOnce(context.Background())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name == "redis_pool_idle_tests_total" {
					require.Len(t, data.DataPoints, 1)
					assert.Equal(t, int64(2), data.DataPoints[0].Value)
				}
			case metricdata.Gauge[int64]:
				if m.Name == "redis_pool_idle_connections" {
					require.Len(t, data.DataPoints, 1)
					assert.Equal(t, int64(3), data.DataPoints[0].Value)
				}
			}
		}
	}
	assert.True(t, found["redis_pool_idle_tests_total"])
	assert.True(t, found["redis_pool_connections"])
	assert.True(t, found["redis_pool_idle_connections"])
}

func TestIdleValidator_StartStops(t *testing.T) {
	_, node := newTestNode(t)
	warmUp(t, node, 1)

	cfg := config.PoolConfig{TestWhileIdle: true, TimeBetweenEvictionRuns: 5 * time.Millisecond}
	v := NewIdleValidator(cfg, staticNodes(node), zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		v.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("idle validator did not stop")
	}
}
