package contract

import (
	"errors"
	"fmt"
)

// ErrorCode 错误代码
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeConnectionFailed
	ErrCodeBorrowFailed
	ErrCodeScanFailed
	ErrCodeInvalidConfig
	ErrCodeInvalidArgument
	ErrCodeClientClosed
)

// String 错误代码名称
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnectionFailed:
		return "connection_failed"
	case ErrCodeBorrowFailed:
		return "borrow_failed"
	case ErrCodeScanFailed:
		return "scan_failed"
	case ErrCodeInvalidConfig:
		return "invalid_config"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeClientClosed:
		return "client_closed"
	default:
		return "unknown"
	}
}

// ClientError 客户端错误
type ClientError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error 实现error接口
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Unwrap
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配，支持errors.Is(err, ErrScanFailed)
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsCode 错误链中是否包含指定代码的ClientError
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &ClientError{Code: code})
}

// NewClientError 创建客户端错误
func NewClientError(code ErrorCode, message string, cause error) *ClientError {
	return &ClientError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// 预定义错误
var (
	ErrConnectionFailed = NewClientError(ErrCodeConnectionFailed, "connection failed", nil)
	ErrBorrowFailed     = NewClientError(ErrCodeBorrowFailed, "borrow connection failed", nil)
	ErrScanFailed       = NewClientError(ErrCodeScanFailed, "scan failed", nil)
	ErrInvalidConfig    = NewClientError(ErrCodeInvalidConfig, "invalid configuration", nil)
	ErrInvalidArgument  = NewClientError(ErrCodeInvalidArgument, "invalid argument", nil)
	ErrClientClosed     = NewClientError(ErrCodeClientClosed, "client is closed", nil)
)
