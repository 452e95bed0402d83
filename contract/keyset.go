package contract

import "sort"

// KeySet 匹配到的键集合，无序且去重
type KeySet map[string]struct{}

// NewKeySet 创建键集合
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	s.Add(keys...)
	return s
}

// Add 添加键
func (s KeySet) Add(keys ...string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Merge 合并另一个集合
func (s KeySet) Merge(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Contains 是否包含键
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len 集合大小
func (s KeySet) Len() int {
	return len(s)
}

// Sorted 排序后的键列表
func (s KeySet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
