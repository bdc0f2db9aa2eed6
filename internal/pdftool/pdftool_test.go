package pdftool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
)

type call struct {
	name string
	args []string
}

// fakeRunner 记录调用，可按需生成输出文件并返回预设结果
type fakeRunner struct {
	calls  []call
	output []byte
	err    error
	create string
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.create != "" {
		_ = os.WriteFile(f.create, []byte("%PDF"), 0o644)
	}
	return f.output, f.err
}

func TestQPDFDecrypt(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	t.Run("成功", func(t *testing.T) {
		r := &fakeRunner{create: out}
		q := &QPDF{Runner: r, Command: "qpdf"}
		require.NoError(t, q.Decrypt(context.Background(), "in.pdf", out))
		assert.Equal(t, []string{"--decrypt", "in.pdf", out}, r.calls[0].args)
	})

	t.Run("退出码 3 视为成功", func(t *testing.T) {
		r := &fakeRunner{create: out, err: &ToolError{Tool: "qpdf", ExitCode: 3, Err: errors.New("exit status 3")}}
		q := &QPDF{Runner: r, Command: "qpdf"}
		assert.NoError(t, q.Decrypt(context.Background(), "in.pdf", out))
	})

	t.Run("其他退出码失败", func(t *testing.T) {
		r := &fakeRunner{err: &ToolError{Tool: "qpdf", ExitCode: 2, Err: errors.New("exit status 2")}}
		q := &QPDF{Runner: r, Command: "qpdf"}
		err := q.Decrypt(context.Background(), "in.pdf", filepath.Join(dir, "none.pdf"))
		var te *ToolError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 2, te.ExitCode)
	})

	t.Run("没有输出文件", func(t *testing.T) {
		q := &QPDF{Runner: &fakeRunner{}, Command: "qpdf"}
		assert.Error(t, q.Decrypt(context.Background(), "in.pdf", filepath.Join(dir, "missing.pdf")))
	})
}

func TestPDFTK(t *testing.T) {
	t.Run("解析页数", func(t *testing.T) {
		r := &fakeRunner{output: []byte("InfoBegin\nInfoKey: Title\nNumberOfPages: 25\nPageMediaBegin\n")}
		p := &PDFTK{Runner: r, Command: "pdftk"}
		n, err := p.PageCount(context.Background(), "doc.pdf")
		require.NoError(t, err)
		assert.Equal(t, 25, n)
		assert.Equal(t, []string{"doc.pdf", "dump_data"}, r.calls[0].args)
	})

	t.Run("缺少页数行", func(t *testing.T) {
		p := &PDFTK{Runner: &fakeRunner{output: []byte("InfoBegin\n")}, Command: "pdftk"}
		_, err := p.PageCount(context.Background(), "doc.pdf")
		assert.Error(t, err)
	})

	t.Run("提取页", func(t *testing.T) {
		r := &fakeRunner{}
		p := &PDFTK{Runner: r, Command: "pdftk"}
		require.NoError(t, p.ExtractPages(context.Background(), "doc.pdf", "part.pdf", 21, 25))
		assert.Equal(t, []string{"doc.pdf", "cat", "21-25", "output", "part.pdf"}, r.calls[0].args)
	})
}

func TestPDF2HTMLEXConvert(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "html")

	r := &fakeRunner{create: filepath.Join(outDir, "report_part001.html")}
	c := &PDF2HTMLEX{Runner: r, Command: "pdf2htmlEX"}

	htmlPath, err := c.Convert(context.Background(), "/tmp/split/report_part001.pdf", outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "report_part001.html"), htmlPath)
	assert.Equal(t, []string{
		"--process-outline", "0",
		"--fit-width", "1024",
		"--space-as-offset", "1",
		"--dest-dir", outDir,
		"/tmp/split/report_part001.pdf", "report_part001.html",
	}, r.calls[0].args)

	t.Run("没有输出", func(t *testing.T) {
		c := &PDF2HTMLEX{Runner: &fakeRunner{}, Command: "pdf2htmlEX"}
		_, err := c.Convert(context.Background(), "/tmp/x.pdf", outDir)
		assert.Error(t, err)
	})
}

func TestWKHTMLTOPDFRender(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "out.pdf")

	t.Run("带前缀", func(t *testing.T) {
		r := &fakeRunner{create: pdfPath}
		w := &WKHTMLTOPDF{Runner: r, Prefix: []string{"xvfb-run", "-a"}, Command: "wkhtmltopdf"}
		got, err := w.Render(context.Background(), "in.html", pdfPath)
		require.NoError(t, err)
		assert.Equal(t, pdfPath, got)
		assert.Equal(t, "xvfb-run", r.calls[0].name)
		assert.Equal(t, []string{"-a", "wkhtmltopdf", "--no-images", "--quiet", "--dpi", "300", "in.html", pdfPath}, r.calls[0].args)
	})

	t.Run("非零退出但已生成文件", func(t *testing.T) {
		r := &fakeRunner{create: pdfPath, err: &ToolError{Tool: "wkhtmltopdf", ExitCode: 1, Err: errors.New("exit status 1")}}
		w := &WKHTMLTOPDF{Runner: r, Command: "wkhtmltopdf"}
		got, err := w.Render(context.Background(), "in.html", pdfPath)
		assert.NoError(t, err)
		assert.Equal(t, pdfPath, got)
	})

	t.Run("没有输出返回空路径", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pdf")
		w := &WKHTMLTOPDF{Runner: &fakeRunner{}, Command: "wkhtmltopdf"}
		got, err := w.Render(context.Background(), "in.html", missing)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestExecRunner(t *testing.T) {
	r := NewExecRunner(nil)

	t.Run("输出", func(t *testing.T) {
		out, err := r.Run(context.Background(), time.Second, "sh", "-c", "echo hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", strings.TrimSpace(string(out)))
	})

	t.Run("退出码", func(t *testing.T) {
		_, err := r.Run(context.Background(), time.Second, "sh", "-c", "echo oops >&2; exit 3")
		var te *ToolError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 3, te.ExitCode)
		assert.Contains(t, te.Error(), "oops")
	})

	t.Run("命令不存在", func(t *testing.T) {
		_, err := r.Run(context.Background(), time.Second, "definitely-not-a-real-tool")
		assert.Equal(t, -1, exitCode(err))
	})
}

func TestNativeRejectsInvalidInput(t *testing.T) {
	n := NewNative(nil)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))

	_, err := n.PageCount(context.Background(), bad)
	assert.Error(t, err)

	assert.Error(t, n.ExtractPages(context.Background(), bad, filepath.Join(dir, "out.pdf"), 3, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.PageCount(ctx, bad)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToolkitBackend(t *testing.T) {
	cfg := config.NewDefaultConfig().Tools

	kit := NewToolkit(cfg, &fakeRunner{}, nil)
	assert.IsType(t, &Native{}, kit.Counter)
	assert.IsType(t, &Native{}, kit.Extractor)

	cfg.PDFBackend = "pdftk"
	kit = NewToolkit(cfg, &fakeRunner{}, nil)
	assert.IsType(t, &PDFTK{}, kit.Counter)
	assert.IsType(t, &QPDF{}, kit.Decryptor)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(config.NewDefaultConfig().Tools, nil)
	r.lookPath = func(cmd string) (string, error) {
		if cmd == "wkhtmltopdf" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + cmd, nil
	}
	r.version = func(_ context.Context, path, _ string) (string, error) {
		return filepath.Base(path) + " 1.0", nil
	}

	statuses := r.Check(context.Background())
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, st.Tool.Name)
	}
	assert.Equal(t, []string{"pdf2htmlEX", "pdftk", "qpdf", "wkhtmltopdf", "xvfb-run"}, names)

	for _, st := range statuses {
		if st.Tool.Name == "qpdf" {
			assert.True(t, st.Available)
			assert.Equal(t, "/usr/bin/qpdf", st.Path)
			assert.Equal(t, "qpdf 1.0", st.Version)
		}
	}

	assert.Equal(t, []string{"wkhtmltopdf"}, r.Missing(context.Background()), "native 后端不要求 pdftk")
	assert.Contains(t, r.SuggestInstallation("wkhtmltopdf"), "wkhtmltopdf")
	assert.Contains(t, r.SuggestInstallation("nope"), "未知工具")

	r.RefreshToolStatus()
	r.lookPath = func(cmd string) (string, error) { return "/opt/" + cmd, nil }
	assert.Empty(t, r.Missing(context.Background()))
}
