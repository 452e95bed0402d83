package config

import "time"

// DefaultNumTestsPerEvictionRun 每次空闲检测的默认连接数
const DefaultNumTestsPerEvictionRun = 3

// PoolConfig 连接池配置
//
// 可选字段为零值时表示未设置，由底层连接池使用其默认值。
// 构建完成后不再修改，调整配置需要重新创建客户端。
type PoolConfig struct {
	// TestOnBorrow 借出连接时检测
	TestOnBorrow bool `json:"test_on_borrow" yaml:"test_on_borrow"`
	// TestOnReturn 归还连接时检测
	TestOnReturn bool `json:"test_on_return" yaml:"test_on_return"`
	// TestWhileIdle 空闲时检测
	TestWhileIdle bool `json:"test_while_idle" yaml:"test_while_idle"`

	// MaxIdle 最大空闲连接数
	MaxIdle int `json:"max_idle" yaml:"max_idle"`
	// MinIdle 最小空闲连接数
	MinIdle int `json:"min_idle" yaml:"min_idle"`
	// MaxTotal 最大连接数
	MaxTotal int `json:"max_total" yaml:"max_total"`
	// MaxWait 获取连接最大等待时间
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait"`
	// NumTestsPerEvictionRun 每次空闲检测的连接数
	NumTestsPerEvictionRun int `json:"num_tests_per_eviction_run" yaml:"num_tests_per_eviction_run"`
	// TimeBetweenEvictionRuns 空闲检测间隔
	TimeBetweenEvictionRuns time.Duration `json:"time_between_eviction_runs" yaml:"time_between_eviction_runs"`
	// MinEvictableIdleTime 连接可被回收的最小空闲时间
	MinEvictableIdleTime time.Duration `json:"min_evictable_idle_time" yaml:"min_evictable_idle_time"`
}

// DefaultPoolConfig 默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{TestOnBorrow: true}
}

// BuildPoolConfig 从参数来源构建连接池配置
//
// 缺失或格式错误的参数使用默认值，可选参数只有解析结果大于0时才生效。
func BuildPoolConfig(src Source) PoolConfig {
	cfg := PoolConfig{
		TestOnBorrow:  GetBoolParameter(src, TestOnBorrowKey, true),
		TestOnReturn:  GetBoolParameter(src, TestOnReturnKey, false),
		TestWhileIdle: GetBoolParameter(src, TestWhileIdleKey, false),
	}

	if v := GetIntParameter(src, MaxIdleKey, 0); v > 0 {
		cfg.MaxIdle = v
	}
	if v := GetIntParameter(src, MinIdleKey, 0); v > 0 {
		cfg.MinIdle = v
	}
	// max.total 优先于 max.active
	if v := GetIntParameter(src, MaxActiveKey, 0); v > 0 {
		cfg.MaxTotal = v
	}
	if v := GetIntParameter(src, MaxTotalKey, 0); v > 0 {
		cfg.MaxTotal = v
	}

	timeout := GetIntParameter(src, TimeoutKey, 0)
	if v := GetIntParameter(src, MaxWaitKey, timeout); v > 0 {
		cfg.MaxWait = millis(v)
	}

	if v := GetIntParameter(src, NumTestsPerEvictionRunKey, 0); v > 0 {
		cfg.NumTestsPerEvictionRun = v
	}
	if v := GetIntParameter(src, TimeBetweenEvictionRunsKey, 0); v > 0 {
		cfg.TimeBetweenEvictionRuns = millis(v)
	}
	if v := GetIntParameter(src, MinEvictableIdleTimeKey, 0); v > 0 {
		cfg.MinEvictableIdleTime = millis(v)
	}

	return cfg
}

// HasMaxIdle 是否设置了最大空闲连接数
func (c PoolConfig) HasMaxIdle() bool { return c.MaxIdle > 0 }

// HasMinIdle 是否设置了最小空闲连接数
func (c PoolConfig) HasMinIdle() bool { return c.MinIdle > 0 }

// HasMaxTotal 是否设置了最大连接数
func (c PoolConfig) HasMaxTotal() bool { return c.MaxTotal > 0 }

// HasMaxWait 是否设置了最大等待时间
func (c PoolConfig) HasMaxWait() bool { return c.MaxWait > 0 }

// HasNumTestsPerEvictionRun 是否设置了每次检测连接数
func (c PoolConfig) HasNumTestsPerEvictionRun() bool { return c.NumTestsPerEvictionRun > 0 }

// HasTimeBetweenEvictionRuns 是否设置了检测间隔
func (c PoolConfig) HasTimeBetweenEvictionRuns() bool { return c.TimeBetweenEvictionRuns > 0 }

// HasMinEvictableIdleTime 是否设置了最小可回收空闲时间
func (c PoolConfig) HasMinEvictableIdleTime() bool { return c.MinEvictableIdleTime > 0 }

// TestsPerEvictionRun 每次空闲检测实际使用的连接数
func (c PoolConfig) TestsPerEvictionRun() int {
	if c.HasNumTestsPerEvictionRun() {
		return c.NumTestsPerEvictionRun
	}
	return DefaultNumTestsPerEvictionRun
}

// IdleValidationEnabled 是否需要启动空闲检测
func (c PoolConfig) IdleValidationEnabled() bool {
	return c.TestWhileIdle && c.HasTimeBetweenEvictionRuns()
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
