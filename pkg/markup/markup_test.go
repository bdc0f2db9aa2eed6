package markup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Doc</title><style>.a{color:red}</style></head><body>
<div id="pf1"><span class="a"> Hello </span><script>var x = "Hello";</script><p>World<b>!</b></p></div>
<noscript>hidden</noscript>
<div>   </div>
</body></html>`

// signature 记录树的结构（节点类型与元素名），不包含文本值
func signature(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node, int)
	walk = func(n *html.Node, depth int) {
		sb.WriteString(fmt.Sprintf("%d:%d", depth, n.Type))
		if n.Type == html.ElementNode {
			sb.WriteString(":" + n.Data)
		}
		sb.WriteString(";")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return sb.String()
}

func countNodes(n *html.Node) int {
	count := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countNodes(c)
	}
	return count
}

func mustParse(t *testing.T, s string) *Tree {
	t.Helper()
	tree, err := ParseString(s)
	require.NoError(t, err)
	return tree
}

func TestExtract(t *testing.T) {
	tree := mustParse(t, samplePage)

	got := Extract(tree)
	assert.Equal(t, []string{"Hello", "World", "!"}, got)

	t.Run("重复提取结果一致", func(t *testing.T) {
		again := Extract(tree)
		assert.Equal(t, got, again)
	})

	t.Run("只有脚本和样式时为空", func(t *testing.T) {
		only := mustParse(t, `<html><head><style>x</style></head><body><script>y</script><style>z</style><noscript>n</noscript></body></html>`)
		assert.Empty(t, Extract(only))
	})

	t.Run("不读取 head 中的文本", func(t *testing.T) {
		assert.NotContains(t, got, "Doc")
	})

	t.Run("多行文本节点合并为一行", func(t *testing.T) {
		multi := mustParse(t, "<html><body><p>Hello\n   world</p><p>Bye</p></body></html>")
		assert.Equal(t, []string{"Hello world", "Bye"}, Extract(multi))
	})

	t.Run("统一为 NFC", func(t *testing.T) {
		decomposed := mustParse(t, "<html><body><p>Cafe\u0301</p></body></html>")
		assert.Equal(t, []string{"Caf\u00e9"}, Extract(decomposed))
	})
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(samplePage), 0o644))

	got, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "World", "!"}, got)

	_, err = ExtractFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestReinjectPreservesStructure(t *testing.T) {
	tree := mustParse(t, samplePage)
	beforeShape := signature(tree.Root())
	beforeCount := countNodes(tree.Root())

	original := [][]string{Extract(tree)}
	translated := [][]string{{"Bonjour", "Monde"}}

	replaced := Reinject(tree, original, translated)
	assert.Equal(t, 2, replaced)

	assert.Equal(t, beforeShape, signature(tree.Root()))
	assert.Equal(t, beforeCount, countNodes(tree.Root()))

	// "!" 没有对应译文，保持原样
	assert.Equal(t, []string{"Bonjour", "Monde", "!"}, Extract(tree))

	out, err := tree.Bytes()
	require.NoError(t, err)
	rendered := string(out)
	assert.Contains(t, rendered, `<span class="a"> Bonjour </span>`)
	assert.Contains(t, rendered, `var x = "Hello";`)
	assert.Contains(t, rendered, "<title>Doc</title>")
}

func TestReinjectLookupBySegment(t *testing.T) {
	t.Run("重复文本取先扫描到的分段", func(t *testing.T) {
		tree := mustParse(t, `<html><body><p>Intro</p><p>Body</p><p>Intro</p></body></html>`)
		original := [][]string{{"Intro"}, {"Intro", "Body"}}
		translated := [][]string{{"SegA"}, {"SegB", "Corps"}}

		Reinject(tree, original, translated)
		assert.Equal(t, []string{"SegA", "Corps", "SegA"}, Extract(tree))
	})

	t.Run("分段缺少译文时继续查找下一个分段", func(t *testing.T) {
		tree := mustParse(t, `<html><body><p>A</p></body></html>`)
		Reinject(tree, [][]string{{"A"}, {"A"}}, [][]string{{}, {"B"}})
		assert.Equal(t, []string{"B"}, Extract(tree))
	})

	t.Run("未匹配的节点保持原样", func(t *testing.T) {
		tree := mustParse(t, `<html><body><p>Unknown</p><p>Known</p></body></html>`)
		replaced := Reinject(tree, [][]string{{"Known"}}, [][]string{{"Connu"}})
		assert.Equal(t, 1, replaced)
		assert.Equal(t, []string{"Unknown", "Connu"}, Extract(tree))
	})

	t.Run("译文片段少于原文时按值查找", func(t *testing.T) {
		tree := mustParse(t, `<html><body><p>one</p><p>two</p><p>three</p></body></html>`)
		replaced := Reinject(tree, [][]string{{"one", "two", "three"}}, [][]string{{"un", "deux"}})
		assert.Equal(t, 2, replaced)
		assert.Equal(t, []string{"un", "deux", "three"}, Extract(tree))
	})

	t.Run("相同译文回填后再次提取与原文一致", func(t *testing.T) {
		tree := mustParse(t, samplePage)
		original := Extract(tree)
		Reinject(tree, [][]string{original}, [][]string{original})
		assert.Equal(t, original, Extract(tree))
	})
}

func TestReinjectMultilineNode(t *testing.T) {
	tree := mustParse(t, "<html><body><p>Hello\nworld</p><p>Bye</p><p>Thanks</p></body></html>")
	original := Extract(tree)
	require.Equal(t, []string{"Hello world", "Bye", "Thanks"}, original)

	// 译文按行一一对应
	translated := strings.Split(strings.ToUpper(strings.Join(original, "\n")), "\n")
	replaced := Reinject(tree, [][]string{original}, [][]string{translated})
	assert.Equal(t, 3, replaced)

	out, err := tree.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<p>HELLO WORLD</p><p>BYE</p><p>THANKS</p>")
}

func TestReinjectLeavesHead(t *testing.T) {
	tree := mustParse(t, `<html><head><title>Summary</title></head><body><p>Summary</p></body></html>`)
	original := Extract(tree)
	require.Equal(t, []string{"Summary"}, original)

	replaced := Reinject(tree, [][]string{original}, [][]string{{"Résumé"}})
	assert.Equal(t, 1, replaced)
	assert.Equal(t, "Summary", tree.Title())
	assert.Equal(t, []string{"Résumé"}, Extract(tree))
}

func TestWithSurroundingSpace(t *testing.T) {
	assert.Equal(t, "  x\n", withSurroundingSpace("  a\n", "x"))
	assert.Equal(t, "x", withSurroundingSpace("a", "x"))
	assert.Equal(t, "\tx", withSurroundingSpace("\ta", "x"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "hello world", Preview("hello\n  world", 40))
	assert.Equal(t, "abcd…", Preview("abcdefgh", 5))
	assert.Equal(t, "中文…", Preview("中文字符", 5))
}

func TestSetLang(t *testing.T) {
	tree := mustParse(t, `<html><body><p>x</p></body></html>`)
	tree.SetLang("fr")
	out, err := tree.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<html lang="fr">`)

	tree.SetLang("")
	out, _ = tree.Bytes()
	assert.Contains(t, string(out), `lang="fr"`, "空代码不修改")
}
