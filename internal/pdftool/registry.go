package pdftool

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
)

// Tool 外部工具信息
type Tool struct {
	Name            string            // 工具名称
	Command         string            // 执行命令
	VersionFlag     string            // 版本查询参数
	InstallCommands map[string]string // 安装命令（按操作系统）
	Description     string            // 工具描述
	Required        bool              // 当前配置下流水线是否必须
}

// ToolStatus 工具检查结果
type ToolStatus struct {
	Tool      *Tool
	Available bool
	Path      string
	Version   string
}

// Registry 外部工具注册表，缓存可用性检查结果
type Registry struct {
	tools        map[string]*Tool
	toolStatus   map[string]bool   // 工具可用性缓存
	toolVersions map[string]string // 工具版本缓存
	toolPaths    map[string]string // 工具路径缓存
	mutex        sync.RWMutex
	logger       *zap.Logger

	lookPath func(string) (string, error)
	version  func(ctx context.Context, path, flag string) (string, error)
}

// NewRegistry 按配置注册流水线使用的外部工具
func NewRegistry(cfg config.ToolsConfig, logger *zap.Logger) *Registry {
	logger = applog.OrNop(logger)
	r := &Registry{
		tools:        make(map[string]*Tool),
		toolStatus:   make(map[string]bool),
		toolVersions: make(map[string]string),
		toolPaths:    make(map[string]string),
		logger:       logger,
		lookPath:     exec.LookPath,
		version:      probeVersion,
	}

	pdftkRequired := cfg.PDFBackend == "pdftk"
	tools := []*Tool{
		{
			Name:        "qpdf",
			Command:     cfg.QPDF,
			VersionFlag: "--version",
			InstallCommands: map[string]string{
				"linux":  "apt-get install qpdf",
				"darwin": "brew install qpdf",
			},
			Description: "去除 PDF 加密与密码保护",
			Required:    true,
		},
		{
			Name:        "pdftk",
			Command:     cfg.PDFTK,
			VersionFlag: "--version",
			InstallCommands: map[string]string{
				"linux":  "apt-get install pdftk-java",
				"darwin": "brew install pdftk-java",
			},
			Description: "统计页数与拆分 PDF（pdftk 后端）",
			Required:    pdftkRequired,
		},
		{
			Name:        "pdf2htmlEX",
			Command:     cfg.PDF2HTMLEX,
			VersionFlag: "--version",
			InstallCommands: map[string]string{
				"linux": "apt-get install pdf2htmlex",
			},
			Description: "将 PDF 转换为保留版式的 HTML",
			Required:    true,
		},
		{
			Name:        "wkhtmltopdf",
			Command:     cfg.WKHTMLTOPDF,
			VersionFlag: "--version",
			InstallCommands: map[string]string{
				"linux":  "apt-get install wkhtmltopdf",
				"darwin": "brew install wkhtmltopdf",
			},
			Description: "将翻译后的 HTML 渲染为 PDF",
			Required:    true,
		},
	}
	if len(cfg.RenderPrefix) > 0 {
		tools = append(tools, &Tool{
			Name:    cfg.RenderPrefix[0],
			Command: cfg.RenderPrefix[0],
			InstallCommands: map[string]string{
				"linux": "apt-get install xvfb",
			},
			Description: "为渲染提供虚拟显示",
			Required:    true,
		})
	}

	for _, tool := range tools {
		r.tools[tool.Name] = tool
	}
	return r
}

// IsToolAvailable 检查工具是否可用
func (r *Registry) IsToolAvailable(ctx context.Context, name string) bool {
	r.mutex.RLock()
	if status, exists := r.toolStatus[name]; exists {
		r.mutex.RUnlock()
		return status
	}
	r.mutex.RUnlock()

	available := r.checkToolAvailability(ctx, name)

	r.mutex.Lock()
	r.toolStatus[name] = available
	r.mutex.Unlock()

	return available
}

func (r *Registry) checkToolAvailability(ctx context.Context, name string) bool {
	r.mutex.RLock()
	tool, exists := r.tools[name]
	r.mutex.RUnlock()
	if !exists {
		return false
	}

	path, err := r.lookPath(tool.Command)
	if err != nil {
		r.logger.Debug("工具不在 PATH 中", zap.String("工具", name), zap.String("命令", tool.Command))
		return false
	}

	r.mutex.Lock()
	r.toolPaths[name] = path
	r.mutex.Unlock()

	if tool.VersionFlag == "" {
		return true
	}

	version, err := r.version(ctx, path, tool.VersionFlag)
	if err != nil {
		// 部分工具打印版本时退出码非零，只要找到路径就视为可用
		r.logger.Debug("版本检查失败", zap.String("工具", name), zap.Error(err))
	}

	r.mutex.Lock()
	r.toolVersions[name] = version
	r.mutex.Unlock()

	r.logger.Debug("工具可用", zap.String("工具", name), zap.String("版本", version))
	return true
}

// Check 检查全部工具，按名称排序返回
func (r *Registry) Check(ctx context.Context) []ToolStatus {
	r.mutex.RLock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	r.mutex.RUnlock()
	sort.Strings(names)

	result := make([]ToolStatus, 0, len(names))
	for _, name := range names {
		available := r.IsToolAvailable(ctx, name)

		r.mutex.RLock()
		result = append(result, ToolStatus{
			Tool:      r.tools[name],
			Available: available,
			Path:      r.toolPaths[name],
			Version:   r.toolVersions[name],
		})
		r.mutex.RUnlock()
	}
	return result
}

// Missing 返回当前配置下缺失的必需工具
func (r *Registry) Missing(ctx context.Context) []string {
	var missing []string
	for _, st := range r.Check(ctx) {
		if st.Tool.Required && !st.Available {
			missing = append(missing, st.Tool.Name)
		}
	}
	return missing
}

// SuggestInstallation 提供工具安装建议
func (r *Registry) SuggestInstallation(name string) string {
	r.mutex.RLock()
	tool, exists := r.tools[name]
	r.mutex.RUnlock()
	if !exists {
		return fmt.Sprintf("未知工具: %s", name)
	}

	installCmd, ok := tool.InstallCommands[runtime.GOOS]
	if !ok {
		if installCmd, ok = tool.InstallCommands["linux"]; !ok {
			return fmt.Sprintf("暂不支持在 %s 系统上安装 %s", runtime.GOOS, name)
		}
	}
	return fmt.Sprintf("安装 %s: %s", name, installCmd)
}

// RefreshToolStatus 清空检查缓存
func (r *Registry) RefreshToolStatus() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.toolStatus = make(map[string]bool)
	r.toolVersions = make(map[string]string)
	r.toolPaths = make(map[string]string)
}

func probeVersion(ctx context.Context, path, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, flag).CombinedOutput()
	version := strings.TrimSpace(string(output))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return version, err
}
