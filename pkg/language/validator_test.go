package language

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoundTrip(t *testing.T) {
	for _, lang := range supported {
		for _, input := range []string{lang.Code, strings.ToUpper(lang.Code), strings.ToLower(lang.Code)} {
			got, err := ValidateTarget(input)
			require.NoError(t, err, "code %q", input)
			assert.True(t, strings.EqualFold(got, input), "code %q returned %q", input, got)
			assert.Equal(t, lang.Code, got)
		}
	}
}

func TestValidateCanonicalSpelling(t *testing.T) {
	got, err := ValidateSource("ZH-cn")
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", got)

	got, err = ValidateTarget("mni-mtei")
	require.NoError(t, err)
	assert.Equal(t, "mni-Mtei", got)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("zh-cn"))
	assert.True(t, IsSupported("FR"))
	assert.False(t, IsSupported("french"))
	assert.False(t, IsSupported(""))
}

func TestValidateEmpty(t *testing.T) {
	t.Run("空源语言表示自动检测", func(t *testing.T) {
		got, err := ValidateSource("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("空目标语言报错", func(t *testing.T) {
		_, err := ValidateTarget("  ")
		assert.ErrorIs(t, err, ErrEmptyTarget)
	})
}

func TestValidateNameSuggestion(t *testing.T) {
	t.Run("target", func(t *testing.T) {
		_, err := ValidateTarget("french")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupported)

		var langErr *Error
		require.True(t, errors.As(err, &langErr))
		assert.Equal(t, "fr", langErr.Suggested)
		assert.Equal(t, "The language code 'french' you provided for the PDF translation is invalid. Please use this language code 'fr'.", err.Error())
	})

	t.Run("source", func(t *testing.T) {
		_, err := ValidateSource("French")
		require.Error(t, err)
		assert.Equal(t, "The code 'french' provided for the language of your PDF document is invalid. Please use the language code 'fr'.", err.Error())
	})

	t.Run("带括号的显示名称", func(t *testing.T) {
		_, err := ValidateTarget("Chinese (Simplified)")
		var langErr *Error
		require.True(t, errors.As(err, &langErr))
		assert.Equal(t, "zh-CN", langErr.Suggested)
	})

	t.Run("重复名称取表中第一个代码", func(t *testing.T) {
		_, err := ValidateTarget("hebrew")
		var langErr *Error
		require.True(t, errors.As(err, &langErr))
		assert.Equal(t, "he", langErr.Suggested)
	})
}

func TestValidateGenericError(t *testing.T) {
	tests := []struct {
		role Role
		in   string
		want string
	}{
		{RoleTarget, "xx", "The language code 'xx' provided for the translation of the PDF document is invalid."},
		{RoleSource, "Klingon", "The 'klingon' language code you provided for your PDF document is invalid."},
		// 近似名称不会得到建议
		{RoleTarget, "frenc", "The language code 'frenc' provided for the translation of the PDF document is invalid."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Validate(tt.role, tt.in)
			require.Error(t, err)

			var langErr *Error
			require.True(t, errors.As(err, &langErr))
			assert.Empty(t, langErr.Suggested)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestTableIntegrity(t *testing.T) {
	assert.Len(t, supported, 135)
	assert.Len(t, byCode, len(supported))

	list := List()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Code, list[i].Code)
	}

	code, ok := CodeForName("SCOTS GAELIC")
	assert.True(t, ok)
	assert.Equal(t, "gd", code)
}

func TestSearch(t *testing.T) {
	results := Search("chinese")
	require.NotEmpty(t, results)

	codes := make([]string, 0, len(results))
	for _, l := range results {
		codes = append(codes, l.Code)
	}
	assert.Contains(t, codes, "zh-CN")
	assert.Contains(t, codes, "zh-TW")

	assert.Len(t, Search(""), len(supported))
	assert.Empty(t, Search("qqqqqqqq"))
}
