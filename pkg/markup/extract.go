package markup

import (
	"golang.org/x/net/html"
)

// Extract 按文档顺序提取 <body> 下的可见文本片段
//
// 文本节点去掉首尾空白，空片段不占位置。同一棵未修改的树多次提取结果相同。
func Extract(t *Tree) []string {
	body := t.Body()
	if body == nil {
		return []string{}
	}
	return extractFrom(body)
}

func extractFrom(n *html.Node) []string {
	fragments := make([]string, 0, 64)
	walkText(n, func(text *html.Node) {
		if s := normalize(text.Data); s != "" {
			fragments = append(fragments, s)
		}
	})
	return fragments
}

// ExtractFile 解析 HTML 文件并提取文本片段
func ExtractFile(path string) ([]string, error) {
	tree, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(tree), nil
}
