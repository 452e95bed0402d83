package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Serializer 值与消息内容之间的编解码
type Serializer interface {
	Marshal(v any) (string, error)
	Unmarshal(payload string, v any) error
	ContentType() string
}

// JSONSerializer JSON序列化器
type JSONSerializer struct{}

func (s *JSONSerializer) Marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *JSONSerializer) Unmarshal(payload string, v any) error {
	return json.Unmarshal([]byte(payload), v)
}

func (s *JSONSerializer) ContentType() string {
	return "application/json"
}

// MsgPackSerializer MessagePack序列化器，Redis字符串是二进制安全的
type MsgPackSerializer struct{}

func (s *MsgPackSerializer) Marshal(v any) (string, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *MsgPackSerializer) Unmarshal(payload string, v any) error {
	return msgpack.Unmarshal([]byte(payload), v)
}

func (s *MsgPackSerializer) ContentType() string {
	return "application/msgpack"
}

// Type 序列化器类型
type Type string

const (
	Json    Type = "json"
	MsgPack Type = "msgpack"
)

// NewSerializer 创建序列化器，空类型使用JSON
func NewSerializer(serializerType Type) (Serializer, error) {
	switch serializerType {
	case Json, "":
		return &JSONSerializer{}, nil
	case MsgPack:
		return &MsgPackSerializer{}, nil
	default:
		return nil, fmt.Errorf("unsupported serializer type: %s", serializerType)
	}
}
