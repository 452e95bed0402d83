package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dysodeng/remoting/scanner"
	"github.com/redis/go-redis/v9"
)

// ScanCmdable 支持SCAN命令的连接，*redis.Conn与*redis.Client均满足
type ScanCmdable interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// ScanConn 将go-redis连接适配为scanner.Conn
type ScanConn struct {
	conn  ScanCmdable
	count int64
}

// NewScanConn 创建扫描连接，count为SCAN的COUNT提示，0表示不指定
func NewScanConn(conn ScanCmdable, count int64) *ScanConn {
	return &ScanConn{conn: conn, count: count}
}

// Scan 实现scanner.Conn接口
func (c *ScanConn) Scan(ctx context.Context, cursor scanner.Cursor, match string) (scanner.Cursor, []string, error) {
	n, err := strconv.ParseUint(string(cursor), 10, 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid scan cursor %q: %w", cursor, err)
	}

	keys, next, err := c.conn.Scan(ctx, n, match, c.count).Result()
	if err != nil {
		return "", nil, err
	}
	return scanner.Cursor(strconv.FormatUint(next, 10)), keys, nil
}
