package testutils

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/nerdneilsfield/go-pdf-translator/internal/pdftool"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// ErrToolFailed 替身工具的预设失败
var ErrToolFailed = errors.New("fake tool failed")

// FakeTools 在内存文件系统上模拟全部 PDF 工具
//
// 拆分出的分段文件内容为 "pages a-b"，转换时每页生成一个 "Page N" 段落，
// 另外每个文档都带一个相同的页脚段落。
type FakeTools struct {
	Store *storage.FS
	Pages int

	FailDecrypt bool
	FailConvert bool
	FailRender  bool

	mu          sync.Mutex
	Decrypts    int
	Extractions int
	Conversions int
	Renders     int
}

// NewFakeTools 创建替身工具
func NewFakeTools(store *storage.FS, pages int) *FakeTools {
	return &FakeTools{Store: store, Pages: pages}
}

// Toolkit 以替身组装工具集
func (f *FakeTools) Toolkit() *pdftool.Toolkit {
	return &pdftool.Toolkit{
		Decryptor: f,
		Counter:   f,
		Extractor: f,
		Converter: f,
		Renderer:  f,
	}
}

// Calls 返回各工具的调用次数
func (f *FakeTools) Calls() (decrypts, extractions, conversions, renders int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Decrypts, f.Extractions, f.Conversions, f.Renders
}

// Decrypt 复制文件
func (f *FakeTools) Decrypt(_ context.Context, in, out string) error {
	f.mu.Lock()
	f.Decrypts++
	f.mu.Unlock()

	if f.FailDecrypt {
		return ErrToolFailed
	}
	data, err := f.Store.ReadFile(in)
	if err != nil {
		return err
	}
	return f.Store.WriteFile(out, data)
}

// PageCount 分段文件返回其页数，其他文件返回 Pages
func (f *FakeTools) PageCount(_ context.Context, path string) (int, error) {
	start, end, ok := f.pageRange(path)
	if !ok {
		return 0, fmt.Errorf("cannot read %s", path)
	}
	return end - start + 1, nil
}

// ExtractPages 写入记录页码范围的分段文件
func (f *FakeTools) ExtractPages(_ context.Context, _, out string, start, end int) error {
	f.mu.Lock()
	f.Extractions++
	f.mu.Unlock()
	return f.Store.WriteFile(out, []byte(fmt.Sprintf("pages %d-%d", start, end)))
}

// Convert 生成每页一个段落的 HTML
func (f *FakeTools) Convert(ctx context.Context, pdfPath, outDir string) (string, error) {
	f.mu.Lock()
	f.Conversions++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.FailConvert {
		return "", ErrToolFailed
	}

	start, end, ok := f.pageRange(pdfPath)
	if !ok {
		return "", fmt.Errorf("cannot read %s", pdfPath)
	}

	var body strings.Builder
	for page := start; page <= end; page++ {
		fmt.Fprintf(&body, "<div class=\"pf\"><p>Page %d</p></div>\n", page)
	}
	body.WriteString("<p> Footer </p><script>var x = 1;</script>\n")

	html := "<!DOCTYPE html><html><head><title>doc</title><style>p{}</style></head><body>\n" +
		body.String() + "</body></html>"

	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath)) + ".html"
	htmlPath := filepath.Join(outDir, name)
	if err := f.Store.WriteFile(htmlPath, []byte(html)); err != nil {
		return "", err
	}
	return htmlPath, nil
}

// Render 写入 PDF 占位内容，FailRender 时不生成文件
func (f *FakeTools) Render(_ context.Context, htmlPath, pdfPath string) (string, error) {
	f.mu.Lock()
	f.Renders++
	f.mu.Unlock()

	if f.FailRender {
		return "", ErrToolFailed
	}
	if !f.Store.Exists(htmlPath) {
		return "", fmt.Errorf("missing %s", htmlPath)
	}
	if err := f.Store.WriteFile(pdfPath, []byte("%PDF-1.4")); err != nil {
		return "", err
	}
	return pdfPath, nil
}

func (f *FakeTools) pageRange(path string) (int, int, bool) {
	data, err := f.Store.ReadFile(path)
	if err != nil {
		return 0, 0, false
	}
	var start, end int
	if _, err := fmt.Sscanf(string(data), "pages %d-%d", &start, &end); err == nil {
		return start, end, true
	}
	return 1, f.Pages, true
}

// UpperProvider 把文本转换为大写的确定性提供商
type UpperProvider struct {
	mu       sync.Mutex
	Requests []string
	Err      error
}

// Translate 返回大写文本
func (p *UpperProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.Requests = append(p.Requests, req.Text)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return &providers.ProviderResponse{
		Text:       strings.ToUpper(req.Text),
		SourceLang: "en",
		TargetLang: req.TargetLanguage,
	}, nil
}

// RequestCount 已收到的请求数
func (p *UpperProvider) RequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

// GetName 获取提供商名称
func (p *UpperProvider) GetName() string { return "upper" }

// GetCapabilities 获取提供商能力
func (p *UpperProvider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{SupportsDetection: false}
}

// HealthCheck 健康检查
func (p *UpperProvider) HealthCheck(context.Context) error { return p.Err }

// MockProvider 基于 testify/mock 的提供商
type MockProvider struct {
	mock.Mock
}

// Translate 实现翻译
func (m *MockProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.ProviderResponse)
	return resp, args.Error(1)
}

// DetectLanguage 实现语言检测
func (m *MockProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// GetName 获取提供商名称
func (m *MockProvider) GetName() string { return "mock" }

// GetCapabilities 获取提供商能力
func (m *MockProvider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{SupportsDetection: true}
}

// HealthCheck 健康检查
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
