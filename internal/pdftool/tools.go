package pdftool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Decryptor 去除 PDF 的密码保护与加密
type Decryptor interface {
	Decrypt(ctx context.Context, in, out string) error
}

// PageCounter 统计 PDF 页数
type PageCounter interface {
	PageCount(ctx context.Context, path string) (int, error)
}

// PageExtractor 提取连续页到新文件，页码从 1 开始且包含两端
type PageExtractor interface {
	ExtractPages(ctx context.Context, in, out string, start, end int) error
}

// Converter 将 PDF 转换为 HTML
type Converter interface {
	Convert(ctx context.Context, pdfPath, outDir string) (string, error)
}

// Renderer 将 HTML 渲染为 PDF，没有产生输出时返回空路径
type Renderer interface {
	Render(ctx context.Context, htmlPath, pdfPath string) (string, error)
}

// QPDF 使用 qpdf 解密
type QPDF struct {
	Runner  Runner
	Command string
	Timeout time.Duration
}

// qpdfWarningExit qpdf 成功但有警告时的退出码
const qpdfWarningExit = 3

// Decrypt 执行 qpdf --decrypt，退出码 3 视为成功
func (q *QPDF) Decrypt(ctx context.Context, in, out string) error {
	_, err := q.Runner.Run(ctx, q.Timeout, q.Command, "--decrypt", in, out)
	if err != nil && exitCode(err) != qpdfWarningExit {
		return err
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return fmt.Errorf("qpdf produced no output %s: %w", out, statErr)
	}
	return nil
}

// PDFTK 使用 pdftk 统计页数与提取页
type PDFTK struct {
	Runner  Runner
	Command string
	Timeout time.Duration
}

// PageCount 解析 pdftk dump_data 输出中的 NumberOfPages
func (p *PDFTK) PageCount(ctx context.Context, path string) (int, error) {
	out, err := p.Runner.Run(ctx, p.Timeout, p.Command, path, "dump_data")
	if err != nil {
		return 0, err
	}
	return parseNumberOfPages(out)
}

// ExtractPages 执行 pdftk in cat start-end output out
func (p *PDFTK) ExtractPages(ctx context.Context, in, out string, start, end int) error {
	_, err := p.Runner.Run(ctx, p.Timeout, p.Command, in, "cat", fmt.Sprintf("%d-%d", start, end), "output", out)
	return err
}

func parseNumberOfPages(dump []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(dump))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "NumberOfPages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "NumberOfPages:")))
		if err != nil {
			return 0, fmt.Errorf("invalid NumberOfPages line %q: %w", line, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("NumberOfPages not found in pdftk output")
}

// PDF2HTMLEX 使用 pdf2htmlEX 转换
type PDF2HTMLEX struct {
	Runner  Runner
	Command string
	Timeout time.Duration
}

// Convert 将 PDF 转换到 outDir/<name>.html，name 为 PDF 的文件名去掉扩展名
func (c *PDF2HTMLEX) Convert(ctx context.Context, pdfPath, outDir string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath)) + ".html"
	htmlPath := filepath.Join(outDir, name)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	_, err := c.Runner.Run(ctx, c.Timeout, c.Command,
		"--process-outline", "0",
		"--fit-width", "1024",
		"--space-as-offset", "1",
		"--dest-dir", outDir,
		pdfPath, name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(htmlPath); err != nil {
		return "", fmt.Errorf("pdf2htmlEX produced no output %s: %w", htmlPath, err)
	}
	return htmlPath, nil
}

// WKHTMLTOPDF 使用 wkhtmltopdf 渲染，可通过前缀在虚拟显示中运行
type WKHTMLTOPDF struct {
	Runner  Runner
	Prefix  []string
	Command string
	Timeout time.Duration
}

// Render 渲染 HTML，命令失败或没有生成文件时返回空路径
func (w *WKHTMLTOPDF) Render(ctx context.Context, htmlPath, pdfPath string) (string, error) {
	args := []string{"--no-images", "--quiet", "--dpi", "300", htmlPath, pdfPath}

	name := w.Command
	if len(w.Prefix) > 0 {
		name = w.Prefix[0]
		args = append(append(append([]string{}, w.Prefix[1:]...), w.Command), args...)
	}

	_, runErr := w.Runner.Run(ctx, w.Timeout, name, args...)
	if _, err := os.Stat(pdfPath); err != nil {
		return "", runErr
	}
	// wkhtmltopdf 遇到资源加载错误时退出码非零，但文件已生成
	return pdfPath, nil
}
