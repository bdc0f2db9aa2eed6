// Package language 提供支持语言表与语言代码校验
package language

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

// Role 标识被校验的语言所处的位置
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

var (
	// ErrUnsupported 语言代码不在支持表中
	ErrUnsupported = errors.New("unsupported language")

	// ErrEmptyTarget 未提供目标语言
	ErrEmptyTarget = errors.New("target language is required")
)

// Error 语言校验错误，Suggested 仅在输入匹配某个语言显示名称时非空
type Error struct {
	Role      Role
	Input     string
	Suggested string
}

func (e *Error) Error() string {
	switch {
	case e.Role == RoleSource && e.Suggested != "":
		return fmt.Sprintf("The code '%s' provided for the language of your PDF document is invalid. Please use the language code '%s'.", e.Input, e.Suggested)
	case e.Role == RoleSource:
		return fmt.Sprintf("The '%s' language code you provided for your PDF document is invalid.", e.Input)
	case e.Suggested != "":
		return fmt.Sprintf("The language code '%s' you provided for the PDF translation is invalid. Please use this language code '%s'.", e.Input, e.Suggested)
	default:
		return fmt.Sprintf("The language code '%s' provided for the translation of the PDF document is invalid.", e.Input)
	}
}

// Unwrap 使 errors.Is(err, ErrUnsupported) 成立
func (e *Error) Unwrap() error {
	return ErrUnsupported
}

var (
	byCode = make(map[string]Language, len(supported))
	byName = make(map[string]string, len(supported))
)

func init() {
	for _, lang := range supported {
		byCode[fold(lang.Code)] = lang
		key := fold(lang.Name)
		// 同名语言（如 he/iw）保留表中第一个代码
		if _, exists := byName[key]; !exists {
			byName[key] = lang.Code
		}
	}
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Validate 校验语言代码，返回语言表中的规范写法
//
// 空的源语言合法（由翻译服务自动检测）；空的目标语言返回 ErrEmptyTarget。
// 输入若是语言的显示名称，错误中会给出正确的代码。
func Validate(role Role, code string) (string, error) {
	input := strings.ToLower(strings.TrimSpace(code))
	if input == "" {
		if role == RoleTarget {
			return "", ErrEmptyTarget
		}
		return "", nil
	}

	if lang, ok := byCode[fold(input)]; ok {
		return lang.Code, nil
	}

	return "", &Error{
		Role:      role,
		Input:     input,
		Suggested: byName[fold(input)],
	}
}

// ValidateSource 校验源语言
func ValidateSource(code string) (string, error) {
	return Validate(RoleSource, code)
}

// ValidateTarget 校验目标语言
func ValidateTarget(code string) (string, error) {
	return Validate(RoleTarget, code)
}

// IsSupported 判断代码是否在支持表中（大小写不敏感）
func IsSupported(code string) bool {
	_, ok := byCode[fold(code)]
	return ok
}

// CodeForName 根据显示名称查找代码
func CodeForName(name string) (string, bool) {
	code, ok := byName[fold(name)]
	return code, ok
}

// Lookup 根据代码获取语言
func Lookup(code string) (Language, bool) {
	lang, ok := byCode[fold(code)]
	return lang, ok
}

// List 返回按代码排序的全部语言
func List() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}

// Search 对名称和代码做模糊匹配，按匹配距离排序
func Search(query string) []Language {
	query = strings.TrimSpace(query)
	if query == "" {
		return List()
	}

	targets := make([]string, len(supported))
	for i, lang := range supported {
		targets[i] = lang.Code + " " + lang.Name
	}

	ranks := fuzzy.RankFindFold(query, targets)
	sort.Sort(ranks)

	out := make([]Language, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, supported[r.OriginalIndex])
	}
	return out
}
