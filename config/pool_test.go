package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildPoolConfig_Defaults(t *testing.T) {
	t.Run("empty params", func(t *testing.T) {
		assert.Equal(t, DefaultPoolConfig(), BuildPoolConfig(Params{}))
	})

	t.Run("nil source", func(t *testing.T) {
		assert.Equal(t, PoolConfig{TestOnBorrow: true}, BuildPoolConfig(nil))
	})

	t.Run("unrelated keys only", func(t *testing.T) {
		cfg := BuildPoolConfig(Params{"foo": "bar", "db.index": "3"})
		assert.True(t, cfg.TestOnBorrow)
		assert.False(t, cfg.TestOnReturn)
		assert.False(t, cfg.TestWhileIdle)
		assert.False(t, cfg.HasMaxIdle())
		assert.False(t, cfg.HasMinIdle())
		assert.False(t, cfg.HasMaxTotal())
		assert.False(t, cfg.HasMaxWait())
		assert.False(t, cfg.HasNumTestsPerEvictionRun())
		assert.False(t, cfg.HasTimeBetweenEvictionRuns())
		assert.False(t, cfg.HasMinEvictableIdleTime())
	})
}

func TestBuildPoolConfig_AllKeys(t *testing.T) {
	cfg := BuildPoolConfig(Params{
		TestOnBorrowKey:            "false",
		TestOnReturnKey:            "true",
		TestWhileIdleKey:           "true",
		MaxIdleKey:                 "8",
		MinIdleKey:                 "2",
		MaxActiveKey:               "16",
		MaxWaitKey:                 "1500",
		NumTestsPerEvictionRunKey:  "4",
		TimeBetweenEvictionRunsKey: "30000",
		MinEvictableIdleTimeKey:    "60000",
	})

	assert.Equal(t, PoolConfig{
		TestOnBorrow:            false,
		TestOnReturn:            true,
		TestWhileIdle:           true,
		MaxIdle:                 8,
		MinIdle:                 2,
		MaxTotal:                16,
		MaxWait:                 1500 * time.Millisecond,
		NumTestsPerEvictionRun:  4,
		TimeBetweenEvictionRuns: 30 * time.Second,
		MinEvictableIdleTime:    time.Minute,
	}, cfg)
	assert.True(t, cfg.IdleValidationEnabled())
	assert.Equal(t, 4, cfg.TestsPerEvictionRun())
}

func TestBuildPoolConfig_MaxTotalPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"total wins over active", Params{MaxActiveKey: "10", MaxTotalKey: "20"}, 20},
		{"total wins even when smaller", Params{MaxActiveKey: "50", MaxTotalKey: "5"}, 5},
		{"active only", Params{MaxActiveKey: "10"}, 10},
		{"total only", Params{MaxTotalKey: "7"}, 7},
		{"non positive total keeps active", Params{MaxActiveKey: "10", MaxTotalKey: "0"}, 10},
		{"negative total keeps active", Params{MaxActiveKey: "10", MaxTotalKey: "-3"}, 10},
		{"both non positive", Params{MaxActiveKey: "-1", MaxTotalKey: "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPoolConfig(tt.params).MaxTotal)
		})
	}
}

func TestBuildPoolConfig_NonPositiveLeavesUnset(t *testing.T) {
	keys := []string{
		MaxIdleKey,
		MinIdleKey,
		MaxActiveKey,
		MaxTotalKey,
		MaxWaitKey,
		NumTestsPerEvictionRunKey,
		TimeBetweenEvictionRunsKey,
		MinEvictableIdleTimeKey,
	}

	for _, value := range []int{0, -1, -1000} {
		for _, key := range keys {
			t.Run(key+"="+strconv.Itoa(value), func(t *testing.T) {
				cfg := BuildPoolConfig(Params{key: strconv.Itoa(value)})
				assert.Equal(t, DefaultPoolConfig(), cfg)
			})
		}
	}
}

func TestBuildPoolConfig_MaxWait(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   time.Duration
	}{
		{"max.wait set", Params{MaxWaitKey: "200"}, 200 * time.Millisecond},
		{"falls back to timeout", Params{TimeoutKey: "3000"}, 3 * time.Second},
		{"max.wait wins over timeout", Params{MaxWaitKey: "200", TimeoutKey: "3000"}, 200 * time.Millisecond},
		{"non positive max.wait ignores timeout", Params{MaxWaitKey: "0", TimeoutKey: "3000"}, 0},
		{"negative timeout is unset", Params{TimeoutKey: "-5"}, 0},
		{"malformed max.wait falls back to timeout", Params{MaxWaitKey: "soon", TimeoutKey: "100"}, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPoolConfig(tt.params).MaxWait)
		})
	}
}

func TestBuildPoolConfig_MalformedValuesUseDefaults(t *testing.T) {
	cfg := BuildPoolConfig(Params{
		TestOnBorrowKey:  "maybe",
		TestOnReturnKey:  "",
		MaxIdleKey:       "many",
		MinIdleKey:       "1.5",
		MaxTotalKey:      " ",
		TestWhileIdleKey: "yes",
	})
	assert.Equal(t, DefaultPoolConfig(), cfg)
}

func TestPoolConfig_IdleValidation(t *testing.T) {
	t.Run("disabled without test.while.idle", func(t *testing.T) {
		cfg := BuildPoolConfig(Params{TimeBetweenEvictionRunsKey: "1000"})
		assert.False(t, cfg.IdleValidationEnabled())
	})

	t.Run("disabled without interval", func(t *testing.T) {
		cfg := BuildPoolConfig(Params{TestWhileIdleKey: "true"})
		assert.False(t, cfg.IdleValidationEnabled())
	})

	t.Run("default tests per run", func(t *testing.T) {
		cfg := BuildPoolConfig(Params{TestWhileIdleKey: "true", TimeBetweenEvictionRunsKey: "1000"})
		assert.True(t, cfg.IdleValidationEnabled())
		assert.Equal(t, DefaultNumTestsPerEvictionRun, cfg.TestsPerEvictionRun())
	})
}
