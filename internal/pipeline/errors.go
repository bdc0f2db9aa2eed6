package pipeline

import (
	"errors"
	"fmt"
)

// Kind 流水线错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindUnsupportedLanguage
	KindFileNotFound
	KindPageCountExceeded
	KindExternalToolFailure
	KindTranslationTransportFailure
	KindIncompleteOutput
)

var kindNames = map[Kind]string{
	KindUnknown:                     "Unknown",
	KindInvalidArgument:             "InvalidArgument",
	KindUnsupportedLanguage:         "UnsupportedLanguage",
	KindFileNotFound:                "FileNotFound",
	KindPageCountExceeded:           "PageCountExceeded",
	KindExternalToolFailure:         "ExternalToolFailure",
	KindTranslationTransportFailure: "TranslationTransportFailure",
	KindIncompleteOutput:            "IncompleteOutput",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// 每个类别对应的哨兵错误，配合 errors.Is 使用
var (
	ErrInvalidArgument             = errors.New("invalid argument")
	ErrUnsupportedLanguage         = errors.New("unsupported language")
	ErrFileNotFound                = errors.New("file not found")
	ErrPageCountExceeded           = errors.New("page count exceeded")
	ErrExternalToolFailure         = errors.New("external tool failure")
	ErrTranslationTransportFailure = errors.New("translation transport failure")
	ErrIncompleteOutput            = errors.New("incomplete output")

	// ErrInvalidTransition 阶段在错误的状态下被调用
	ErrInvalidTransition = errors.New("invalid state transition")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindUnsupportedLanguage:
		return ErrUnsupportedLanguage
	case KindFileNotFound:
		return ErrFileNotFound
	case KindPageCountExceeded:
		return ErrPageCountExceeded
	case KindExternalToolFailure:
		return ErrExternalToolFailure
	case KindTranslationTransportFailure:
		return ErrTranslationTransportFailure
	case KindIncompleteOutput:
		return ErrIncompleteOutput
	default:
		return nil
	}
}

// Error 流水线错误
type Error struct {
	Kind      Kind
	Stage     string
	Message   string
	Suggested string // 仅 UnsupportedLanguage，建议使用的语言代码
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil && e.Cause.Error() != msg {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, msg)
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 使 errors.Is(err, ErrPageCountExceeded) 等判断成立
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf 返回错误链中第一个流水线错误的类别
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, stage State, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Stage:   stage.String(),
		Message: message,
		Cause:   cause,
	}
}
