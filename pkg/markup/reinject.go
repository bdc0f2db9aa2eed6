package markup

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Reinject 将译文写回文本节点，返回被替换的节点数
//
// 只处理 <body> 下的文本节点，与 Extract 的范围一致，<head> 中的标题不变。
// 每个文本节点以规范化后的值为查找键，按分段顺序在原文片段中查找第一个相同值，
// 若对应分段的译文在同一下标存在则替换并停止查找。找不到的节点保持原样。
// 不同分段中的重复文本总是解析到先扫描到的分段。树的结构与节点数不变。
func Reinject(t *Tree, original, translated [][]string) int {
	lookups := make([]map[string]int, len(original))
	for k, fragments := range original {
		index := make(map[string]int, len(fragments))
		for i, f := range fragments {
			key := normalize(f)
			if _, exists := index[key]; !exists {
				index[key] = i
			}
		}
		lookups[k] = index
	}

	replaced := 0
	walkText(t.Body(), func(n *html.Node) {
		key := normalize(n.Data)
		if key == "" {
			return
		}
		for k, index := range lookups {
			i, ok := index[key]
			if !ok {
				continue
			}
			if k < len(translated) && i < len(translated[k]) {
				n.Data = withSurroundingSpace(n.Data, translated[k][i])
				replaced++
				return
			}
		}
	})
	return replaced
}

// withSurroundingSpace 保留原节点的首尾空白
func withSurroundingSpace(orig, value string) string {
	trimmedLeft := strings.TrimLeftFunc(orig, unicode.IsSpace)
	lead := orig[:len(orig)-len(trimmedLeft)]
	trail := trimmedLeft[len(strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)):]
	return lead + value + trail
}
