package redis

import (
	"fmt"
	"time"

	"github.com/dysodeng/remoting/config"
	"github.com/dysodeng/remoting/contract"
	"github.com/redis/go-redis/v9"
)

// ClientFactory Redis客户端工厂
type ClientFactory struct {
	config config.RedisConfig
}

// NewClientFactory 创建客户端工厂
func NewClientFactory(config config.RedisConfig) *ClientFactory {
	return &ClientFactory{config: config}
}

// CreateClient 按连接模式创建go-redis客户端
func (f *ClientFactory) CreateClient() (redis.UniversalClient, error) {
	switch f.config.Mode {
	case config.RedisModeMono:
		return redis.NewClient(f.monoOptions()), nil
	case config.RedisModeSentinel:
		return redis.NewFailoverClient(f.sentinelOptions()), nil
	case config.RedisModeCluster:
		return redis.NewClusterClient(f.clusterOptions()), nil
	default:
		return nil, contract.NewClientError(
			contract.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported redis mode: %s", f.config.Mode),
			nil,
		)
	}
}

// poolOptions 连接池参数在go-redis中的对应值，零值表示使用go-redis默认值
type poolOptions struct {
	PoolSize        int
	MaxActiveConns  int
	MaxIdleConns    int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
}

// poolOptions 转换连接池配置
func (f *ClientFactory) poolOptions() poolOptions {
	pool := f.config.Pool
	var opts poolOptions
	if pool.HasMaxTotal() {
		opts.PoolSize = pool.MaxTotal
		opts.MaxActiveConns = pool.MaxTotal
	}
	if pool.HasMaxIdle() {
		opts.MaxIdleConns = pool.MaxIdle
	}
	if pool.HasMinIdle() {
		opts.MinIdleConns = pool.MinIdle
	}
	if pool.HasMaxWait() {
		opts.PoolTimeout = pool.MaxWait
	}
	if pool.HasMinEvictableIdleTime() {
		opts.ConnMaxIdleTime = pool.MinEvictableIdleTime
	}
	return opts
}

// monoOptions 单机客户端参数
func (f *ClientFactory) monoOptions() *redis.Options {
	pool := f.poolOptions()
	return &redis.Options{
		Addr:            f.config.Addr,
		Username:        f.config.Username,
		Password:        f.config.Password,
		DB:              f.config.DB,
		DialTimeout:     f.config.Timeout,
		ReadTimeout:     f.config.Timeout,
		WriteTimeout:    f.config.Timeout,
		PoolSize:        pool.PoolSize,
		MaxActiveConns:  pool.MaxActiveConns,
		MaxIdleConns:    pool.MaxIdleConns,
		MinIdleConns:    pool.MinIdleConns,
		PoolTimeout:     pool.PoolTimeout,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
	}
}

// sentinelOptions 哨兵客户端参数，主地址与备用地址均为哨兵地址
func (f *ClientFactory) sentinelOptions() *redis.FailoverOptions {
	pool := f.poolOptions()
	return &redis.FailoverOptions{
		MasterName:      f.config.MasterName,
		SentinelAddrs:   f.config.Addrs(),
		Username:        f.config.Username,
		Password:        f.config.Password,
		DB:              f.config.DB,
		DialTimeout:     f.config.Timeout,
		ReadTimeout:     f.config.Timeout,
		WriteTimeout:    f.config.Timeout,
		PoolSize:        pool.PoolSize,
		MaxActiveConns:  pool.MaxActiveConns,
		MaxIdleConns:    pool.MaxIdleConns,
		MinIdleConns:    pool.MinIdleConns,
		PoolTimeout:     pool.PoolTimeout,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
	}
}

// clusterOptions 集群客户端参数，集群模式忽略DB
func (f *ClientFactory) clusterOptions() *redis.ClusterOptions {
	pool := f.poolOptions()
	return &redis.ClusterOptions{
		Addrs:           f.config.Addrs(),
		Username:        f.config.Username,
		Password:        f.config.Password,
		DialTimeout:     f.config.Timeout,
		ReadTimeout:     f.config.Timeout,
		WriteTimeout:    f.config.Timeout,
		PoolSize:        pool.PoolSize,
		MaxActiveConns:  pool.MaxActiveConns,
		MaxIdleConns:    pool.MaxIdleConns,
		MinIdleConns:    pool.MinIdleConns,
		PoolTimeout:     pool.PoolTimeout,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
	}
}
