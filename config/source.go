package config

import (
	"strconv"
	"strings"
	"time"
)

// Source 参数来源，只读
type Source interface {
	// Lookup 查找参数原始值，不存在时返回false
	Lookup(key string) (string, bool)
}

// Params 基于map的参数来源
type Params map[string]string

// Lookup 实现Source接口
func (p Params) Lookup(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[key]
	return v, ok
}

// chain 按顺序查找的组合来源
type chain []Source

// Chain 组合多个参数来源，靠前的来源优先
func Chain(sources ...Source) Source {
	c := make(chain, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			c = append(c, src)
		}
	}
	return c
}

func (c chain) Lookup(key string) (string, bool) {
	for _, src := range c {
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// GetParameter 获取字符串参数，缺失或为空时返回默认值
func GetParameter(src Source, key, defaultValue string) string {
	v, ok := lookup(src, key)
	if !ok {
		return defaultValue
	}
	return v
}

// GetIntParameter 获取整型参数，缺失或格式错误时返回默认值
func GetIntParameter(src Source, key string, defaultValue int) int {
	v, ok := lookup(src, key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBoolParameter 获取布尔参数，缺失或格式错误时返回默认值
func GetBoolParameter(src Source, key string, defaultValue bool) bool {
	v, ok := lookup(src, key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// GetMillisParameter 获取以毫秒表示的时长参数
func GetMillisParameter(src Source, key string, defaultMillis int) time.Duration {
	return time.Duration(GetIntParameter(src, key, defaultMillis)) * time.Millisecond
}

func lookup(src Source, key string) (string, bool) {
	if src == nil {
		return "", false
	}
	v, ok := src.Lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}
