package config

import (
	"strconv"
	"time"
)

// RedisMode Redis连接模式
type RedisMode string

const (
	RedisModeMono     RedisMode = "mono"
	RedisModeSentinel RedisMode = "sentinel"
	RedisModeCluster  RedisMode = "cluster"
)

// String 实现Stringer接口
func (m RedisMode) String() string {
	return string(m)
}

// IsValid 检查模式是否有效
func (m RedisMode) IsValid() bool {
	switch m {
	case RedisModeMono, RedisModeSentinel, RedisModeCluster:
		return true
	default:
		return false
	}
}

const (
	// DefaultTimeout 默认连接/读写超时
	DefaultTimeout = time.Second
	// DefaultMasterName 哨兵模式默认主节点名
	DefaultMasterName = "mymaster"
	// DefaultSerialization 默认序列化方式
	DefaultSerialization = "json"
)

// RedisConfig Redis配置
type RedisConfig struct {
	// 连接模式
	Mode RedisMode `json:"mode" yaml:"mode"`

	// 主地址
	Addr string `json:"addr" yaml:"addr"`
	// 备用地址，哨兵与集群模式下与主地址一起使用
	BackupAddrs []string `json:"backup_addrs" yaml:"backup_addrs"`
	// 哨兵主节点名
	MasterName string `json:"master_name" yaml:"master_name"`

	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`

	// 连接与读写超时
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// SCAN的COUNT提示，0表示使用服务端默认值
	ScanCount int64 `json:"scan_count" yaml:"scan_count"`
	// 发布值的序列化方式
	Serialization string `json:"serialization" yaml:"serialization"`

	// 连接池配置
	Pool PoolConfig `json:"pool" yaml:"pool"`
}

// Addrs 主地址加备用地址
func (r *RedisConfig) Addrs() []string {
	addrs := make([]string, 0, len(r.BackupAddrs)+1)
	if r.Addr != "" {
		addrs = append(addrs, r.Addr)
	}
	return append(addrs, r.BackupAddrs...)
}

// SetDefaults 设置默认值
func (r *RedisConfig) SetDefaults() {
	if r.Mode == "" {
		r.Mode = RedisModeMono
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Mode == RedisModeSentinel && r.MasterName == "" {
		r.MasterName = DefaultMasterName
	}
	if r.ScanCount < 0 {
		r.ScanCount = 0
	}
	if r.Serialization == "" {
		r.Serialization = DefaultSerialization
	}
}

// DefaultRedisConfig 默认Redis配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Mode:          RedisModeMono,
		Addr:          "localhost:6379",
		Timeout:       DefaultTimeout,
		Serialization: DefaultSerialization,
		Pool:          DefaultPoolConfig(),
	}
}

// BuildRedisConfig 从服务地址构建Redis配置，src不为空时优先于地址参数
func BuildRedisConfig(u *URL, src Source) RedisConfig {
	params := Chain(src, u)

	cfg := RedisConfig{
		Mode:          RedisMode(GetParameter(params, ModeKey, string(RedisModeMono))),
		Addr:          u.Address(),
		BackupAddrs:   u.BackupAddresses(),
		MasterName:    GetParameter(params, MasterNameKey, ""),
		Username:      GetParameter(params, UsernameKey, u.Username),
		Password:      GetParameter(params, PasswordKey, u.Password),
		DB:            GetIntParameter(params, DBIndexKey, pathDB(u.Path)),
		Timeout:       GetMillisParameter(params, TimeoutKey, int(DefaultTimeout/time.Millisecond)),
		ScanCount:     int64(GetIntParameter(params, ScanCountKey, 0)),
		Serialization: GetParameter(params, SerializationKey, DefaultSerialization),
		Pool:          BuildPoolConfig(params),
	}
	cfg.SetDefaults()
	return cfg
}

func pathDB(path string) int {
	db, err := strconv.Atoi(path)
	if err != nil || db < 0 {
		return 0
	}
	return db
}
