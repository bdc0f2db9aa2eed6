// Package markup 处理 PDF 转换得到的 HTML：文本提取与译文回填
package markup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// skippedTags 不可见内容，提取与回填时整棵子树跳过
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Tree 一个可修改的 HTML 文档树
type Tree struct {
	doc *goquery.Document
}

// Parse 从 reader 解析 HTML
func Parse(r io.Reader) (*Tree, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Tree{doc: doc}, nil
}

// ParseString 从字符串解析 HTML
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile 从文件解析 HTML
func ParseFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Root 返回文档根节点
func (t *Tree) Root() *html.Node {
	if len(t.doc.Nodes) == 0 {
		return nil
	}
	return t.doc.Nodes[0]
}

// Body 返回 <body> 节点，没有时返回 nil
func (t *Tree) Body() *html.Node {
	body := t.doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return body.Nodes[0]
}

// Title 返回 <title> 文本
func (t *Tree) Title() string {
	return strings.TrimSpace(t.doc.Find("title").First().Text())
}

// SetLang 设置 <html lang> 属性，只修改属性不增删节点
func (t *Tree) SetLang(code string) {
	if code == "" {
		return
	}
	t.doc.Find("html").First().SetAttr("lang", code)
}

// Render 序列化整棵树
func (t *Tree) Render(w io.Writer) error {
	root := t.Root()
	if root == nil {
		return fmt.Errorf("empty document")
	}
	return html.Render(w, root)
}

// Bytes 序列化为字节
func (t *Tree) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// walkText 先序深度优先遍历文本节点，跳过不可见子树
func walkText(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			fn(c)
		case html.ElementNode:
			if skippedTags[strings.ToLower(c.Data)] {
				continue
			}
			walkText(c, fn)
		default:
			walkText(c, fn)
		}
	}
}

// normalize 把连续空白（包括换行）合并为单个空格并统一为 NFC，片段总是单行
func normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Preview 截断文本用于日志输出，按显示宽度计算
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}
