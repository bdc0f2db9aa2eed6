package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// 预定义错误
var (
	// ErrNoProvider 未设置翻译提供商
	ErrNoProvider = errors.New("translation provider not configured")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyTarget 未指定目标语言
	ErrEmptyTarget = errors.New("target language is required")
)

// TranslationError 翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Chunk   int    // 出错的分块序号，-1 表示不适用
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Chunk >= 0 {
		msg = fmt.Sprintf("[%s] %s at chunk %d", e.Code, e.Message, e.Chunk)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// 错误代码常量
const (
	ErrCodeConfig    = "CONFIG_ERROR"
	ErrCodeProvider  = "PROVIDER_ERROR"
	ErrCodeNetwork   = "NETWORK_ERROR"
	ErrCodeTimeout   = "TIMEOUT_ERROR"
	ErrCodeRateLimit = "RATE_LIMIT_ERROR"
	ErrCodeCanceled  = "CANCELED"
)

// WrapError 包装远程调用错误，按原因推断错误代码
func WrapError(err error, chunk int, message string) *TranslationError {
	if err == nil {
		return nil
	}

	var te *TranslationError
	if errors.As(err, &te) {
		return te
	}

	code, retry := classify(err)
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Chunk:   chunk,
		Retry:   retry,
	}
}

// classify 判断错误代码以及是否可重试
func classify(err error) (string, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled, false
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout, true
	}

	var perr *providers.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case providers.ErrCodeRateLimit:
			return ErrCodeRateLimit, true
		case providers.ErrCodeTimeout:
			return ErrCodeTimeout, true
		}
		return ErrCodeProvider, perr.IsRetryable()
	}

	return ErrCodeNetwork, true
}
