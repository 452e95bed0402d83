package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/contract"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestNode(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	node := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = node.Close() })
	return mr, node
}

// assertReleased 借出的连接均已归还
func assertReleased(t *testing.T, node *redis.Client) {
	t.Helper()
	stats := node.PoolStats()
	assert.Equal(t, stats.TotalConns, stats.IdleConns, "all connections should be idle")
}

func TestConnPool_WithConn(t *testing.T) {
	mr, node := newTestNode(t)
	mr.Set("greeting", "hello")
	pool := NewConnPool(config.DefaultPoolConfig(), zaptest.NewLogger(t), nil)

	var got string
	err := pool.WithConn(context.Background(), node, func(ctx context.Context, conn *redis.Conn) error {
		var err error
		got, err = conn.Get(ctx, "greeting").Result()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assertReleased(t, node)
	assert.Equal(t, uint32(1), node.PoolStats().TotalConns)
}

func TestConnPool_ReleasesOnError(t *testing.T) {
	_, node := newTestNode(t)
	pool := NewConnPool(config.DefaultPoolConfig(), zaptest.NewLogger(t), nil)
	boom := errors.New("boom")

	for i := 0; i < 5; i++ {
		err := pool.WithConn(context.Background(), node, func(ctx context.Context, conn *redis.Conn) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assertReleased(t, node)
	assert.Equal(t, uint32(1), node.PoolStats().TotalConns)
}

func TestConnPool_ReleasesOnPanic(t *testing.T) {
	_, node := newTestNode(t)
	pool := NewConnPool(config.PoolConfig{TestOnBorrow: true, TestOnReturn: true}, zaptest.NewLogger(t), nil)

	assert.PanicsWithValue(t, "handler exploded", func() {
		_ = pool.WithConn(context.Background(), node, func(ctx context.Context, conn *redis.Conn) error {
			panic("handler exploded")
		})
	})
	assertReleased(t, node)
}

func TestConnPool_ReleasesOnCancel(t *testing.T) {
	_, node := newTestNode(t)
	pool := NewConnPool(config.PoolConfig{TestOnBorrow: true, TestOnReturn: true}, zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	err := pool.WithConn(ctx, node, func(ctx context.Context, conn *redis.Conn) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assertReleased(t, node)
}

func TestConnPool_TestOnBorrow(t *testing.T) {
	t.Run("closed server fails borrow", func(t *testing.T) {
		mr, node := newTestNode(t)
		pool := NewConnPool(config.DefaultPoolConfig(), zaptest.NewLogger(t), nil)
		mr.Close()

		called := false
		err := pool.WithConn(context.Background(), node, func(ctx context.Context, conn *redis.Conn) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.ErrorIs(t, err, contract.ErrBorrowFailed)
	})

	t.Run("disabled skips ping", func(t *testing.T) {
		mr, node := newTestNode(t)
		pool := NewConnPool(config.PoolConfig{}, zaptest.NewLogger(t), nil)
		mr.Close()

		called := false
		err := pool.WithConn(context.Background(), node, func(ctx context.Context, conn *redis.Conn) error {
			called = true
			return conn.Ping(ctx).Err()
		})
		assert.True(t, called)
		assert.Error(t, err)
		assert.False(t, contract.IsCode(err, contract.ErrCodeBorrowFailed))
	})
}
