package config

import (
	"github.com/spf13/viper"
)

// ViperSource 基于viper的参数来源，支持yaml文件与环境变量
type ViperSource struct {
	v      *viper.Viper
	prefix string
}

// NewViperSource 创建viper参数来源，prefix为空时从根节点查找
func NewViperSource(v *viper.Viper, prefix string) *ViperSource {
	return &ViperSource{v: v, prefix: prefix}
}

// Lookup 实现Source接口
func (s *ViperSource) Lookup(key string) (string, bool) {
	if s == nil || s.v == nil {
		return "", false
	}
	if s.prefix != "" {
		key = s.prefix + "." + key
	}
	if !s.v.IsSet(key) {
		return "", false
	}
	return s.v.GetString(key), true
}
