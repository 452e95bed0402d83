package config

// 连接池参数键
const (
	TestOnBorrowKey            = "test.on.borrow"
	TestOnReturnKey            = "test.on.return"
	TestWhileIdleKey           = "test.while.idle"
	MaxIdleKey                 = "max.idle"
	MinIdleKey                 = "min.idle"
	MaxActiveKey               = "max.active"
	MaxTotalKey                = "max.total"
	MaxWaitKey                 = "max.wait"
	NumTestsPerEvictionRunKey  = "num.tests.per.eviction.run"
	TimeBetweenEvictionRunsKey = "time.between.eviction.runs.millis"
	MinEvictableIdleTimeKey    = "min.evictable.idle.time.millis"
	TimeoutKey                 = "timeout"
)

// 连接参数键
const (
	ModeKey       = "mode"
	BackupKey     = "backup"
	MasterNameKey = "master.name"
	DBIndexKey    = "db.index"
	UsernameKey   = "username"
	PasswordKey   = "password"
	ScanCountKey  = "scan.count"
	// SerializationKey 发布值的序列化方式，json或msgpack
	SerializationKey = "serialization"
)
