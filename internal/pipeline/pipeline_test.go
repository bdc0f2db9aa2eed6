package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-pdf-translator/internal/stats"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
	"github.com/nerdneilsfield/go-pdf-translator/internal/testutils"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

const (
	inputPath  = "/in/report.pdf"
	outputPath = "/files/translate/report_fr.pdf"
)

type memRecorder struct {
	records []*stats.TranslationRecord
}

func (m *memRecorder) AddTranslationRecord(r *stats.TranslationRecord) error {
	m.records = append(m.records, r)
	return nil
}

type fixture struct {
	store    *storage.FS
	tools    *testutils.FakeTools
	provider *testutils.UpperProvider
	recorder *memRecorder
	pipeline *Pipeline
}

func newFixture(t *testing.T, pages int, opts ...func(*Options)) *fixture {
	t.Helper()

	store := storage.NewMemory()
	require.NoError(t, store.WriteFile(inputPath, []byte("%PDF fake")))

	f := &fixture{
		store:    store,
		tools:    testutils.NewFakeTools(store, pages),
		provider: &testutils.UpperProvider{},
		recorder: &memRecorder{},
	}

	o := OptionsFromConfig(testutils.CreateTestConfig("/work"))
	for _, fn := range opts {
		fn(&o)
	}

	ids := 0
	p, err := New(o, store, f.tools.Toolkit(), f.provider,
		WithRecorder(f.recorder),
		WithIDGenerator(func() string {
			ids++
			return "run" + strings.Repeat("x", ids)
		}))
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func request() Request {
	return Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
		SourceLang: "en",
		TargetLang: "fr",
	}
}

func TestExecuteTranslatesSplitDocument(t *testing.T) {
	f := newFixture(t, 25)

	result, err := f.pipeline.Execute(context.Background(), request())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"/files/translate/report_fr.html", outputPath}, result.OutputPaths)
	assert.NoError(t, result.Err)

	_, extractions, conversions, renders := f.tools.Calls()
	assert.Equal(t, 2, extractions, "25 页按 20 页拆分为 2 段")
	assert.Equal(t, 3, conversions, "两个分段加整篇文档")
	assert.Equal(t, 1, renders)
	assert.Equal(t, 2, f.provider.RequestCount(), "每个分段单独翻译")

	html, err := f.store.ReadFile("/files/translate/report_fr.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<p>PAGE 1</p>")
	assert.Contains(t, string(html), "<p>PAGE 25</p>")
	assert.Contains(t, string(html), "<p> FOOTER </p>", "保留首尾空白")
	assert.Contains(t, string(html), "var x = 1;", "脚本不翻译")
	assert.Contains(t, string(html), `lang="fr"`)

	assert.False(t, f.store.Exists("/work/runx/report.pdf"), "中间文件已清理")
	assert.True(t, f.store.Exists(inputPath), "输入文件不受影响")

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, stats.StatusCompleted, rec.Status)
	assert.Equal(t, 25, rec.Pages)
	assert.Equal(t, 2, rec.Segments)
	assert.Equal(t, 27, rec.Fragments)
	assert.Equal(t, 26, rec.ReplacedNodes)
	assert.EqualValues(t, 2, rec.Requests)
	assert.Equal(t, "upper", rec.Provider)
}

func TestExecuteSingleSegmentReusesMarkup(t *testing.T) {
	f := newFixture(t, 5)

	result, err := f.pipeline.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, extractions, conversions, _ := f.tools.Calls()
	assert.Zero(t, extractions)
	assert.Equal(t, 1, conversions)
}

func TestExecuteRejectsLongDocument(t *testing.T) {
	f := newFixture(t, 150)

	result, err := f.pipeline.Execute(context.Background(), request())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageCountExceeded)
	assert.Equal(t, KindPageCountExceeded, KindOf(err))

	_, _, conversions, _ := f.tools.Calls()
	assert.Zero(t, conversions)
	assert.Zero(t, f.provider.RequestCount())

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, stats.StatusFailed, f.recorder.records[0].Status)
	assert.Equal(t, "PageCountExceeded", f.recorder.records[0].ErrorKind)

	t.Run("请求可以放宽上限", func(t *testing.T) {
		req := request()
		req.MaxPages = 200
		result, err := f.pipeline.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}

func TestValidate(t *testing.T) {
	f := newFixture(t, 1)

	tests := []struct {
		name   string
		modify func(*Request)
		kind   Kind
	}{
		{"输入不是 PDF", func(r *Request) { r.InputPath = "/in/report.docx" }, KindInvalidArgument},
		{"输出不是 PDF", func(r *Request) { r.OutputPath = "/out/report.html" }, KindInvalidArgument},
		{"目标语言为空", func(r *Request) { r.TargetLang = "" }, KindInvalidArgument},
		{"未知目标语言", func(r *Request) { r.TargetLang = "xx" }, KindUnsupportedLanguage},
		{"未知源语言", func(r *Request) { r.SourceLang = "klingon" }, KindUnsupportedLanguage},
		{"负的页数上限", func(r *Request) { r.MaxPages = -1 }, KindInvalidArgument},
		{"负的分块大小", func(r *Request) { r.ChunkSize = -5 }, KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request()
			tt.modify(&req)
			_, err := f.pipeline.Validate(req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	t.Run("按名称给出建议", func(t *testing.T) {
		req := request()
		req.TargetLang = "French"
		_, err := f.pipeline.Validate(req)
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "fr", pe.Suggested)
		assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	})

	t.Run("规范化语言代码并填充默认值", func(t *testing.T) {
		req := request()
		req.InputPath = "/in/REPORT.PDF"
		req.SourceLang = ""
		req.TargetLang = "ZH-cn"
		run, err := f.pipeline.Validate(req)
		require.NoError(t, err)
		assert.Equal(t, StateValidated, run.State)
		assert.Equal(t, "zh-CN", run.Request.TargetLang)
		assert.Equal(t, 100, run.Request.MaxPages)
		assert.Equal(t, 20, run.Request.SplitPages)
		assert.Equal(t, 3700, run.Request.ChunkSize)
	})

	_, _, conversions, _ := f.tools.Calls()
	assert.Zero(t, conversions, "校验不调用外部工具")
}

func TestStageTransitions(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	run, err := f.pipeline.Validate(request())
	require.NoError(t, err)

	t.Run("错误状态下调用阶段", func(t *testing.T) {
		_, err := f.pipeline.Split(ctx, run)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = f.pipeline.WriteOutput(ctx, run)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("每个阶段返回新快照", func(t *testing.T) {
		checked, err := f.pipeline.CheckFile(ctx, run)
		require.NoError(t, err)
		assert.Equal(t, StateFileChecked, checked.State)
		assert.Equal(t, StateValidated, run.State, "原快照不变")

		cond, err := f.pipeline.CheckConditions(ctx, checked)
		require.NoError(t, err)
		assert.Equal(t, 5, cond.Pages)
		assert.Zero(t, checked.Pages)

		_, err = f.pipeline.CheckConditions(ctx, checked)
		require.NoError(t, err, "旧快照仍可重放")

		cleaned, err := f.pipeline.Cleanup(cond)
		require.NoError(t, err)
		assert.Equal(t, StateCleanedUp, cleaned.State)

		_, err = f.pipeline.Cleanup(cleaned)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestExecuteFailures(t *testing.T) {
	t.Run("输入文件不存在", func(t *testing.T) {
		f := newFixture(t, 5)
		req := request()
		req.InputPath = "/in/missing.pdf"
		_, err := f.pipeline.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("解密失败", func(t *testing.T) {
		f := newFixture(t, 5)
		f.tools.FailDecrypt = true
		_, err := f.pipeline.Execute(context.Background(), request())
		assert.ErrorIs(t, err, ErrExternalToolFailure)
		assert.ErrorIs(t, err, testutils.ErrToolFailed)
	})

	t.Run("转换失败后清理中间文件", func(t *testing.T) {
		f := newFixture(t, 45)
		f.tools.FailConvert = true
		_, err := f.pipeline.Execute(context.Background(), request())
		require.Error(t, err)
		assert.Equal(t, KindExternalToolFailure, KindOf(err))

		files, err := f.store.ListByPattern("/work/runx/split", `.*`)
		require.NoError(t, err)
		assert.Empty(t, files)
		assert.False(t, f.store.Exists("/work/runx/report.pdf"))
		assert.True(t, f.store.Exists(inputPath))
	})

	t.Run("翻译失败", func(t *testing.T) {
		f := newFixture(t, 5)
		f.provider.Err = providers.NewError(providers.ErrCodeServer, "upstream down")
		_, err := f.pipeline.Execute(context.Background(), request())
		assert.ErrorIs(t, err, ErrTranslationTransportFailure)
		assert.False(t, f.store.Exists("/files/translate/report_fr.html"))
	})

	t.Run("渲染失败时返回不完整结果", func(t *testing.T) {
		f := newFixture(t, 5)
		f.tools.FailRender = true
		result, err := f.pipeline.Execute(context.Background(), request())
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, []string{"/files/translate/report_fr.html"}, result.OutputPaths)
		assert.ErrorIs(t, result.Err, ErrIncompleteOutput)

		require.Len(t, f.recorder.records, 1)
		assert.Equal(t, stats.StatusIncomplete, f.recorder.records[0].Status)
	})

	t.Run("旧输出文件不算作本次结果", func(t *testing.T) {
		f := newFixture(t, 5)
		require.NoError(t, f.store.WriteFile(outputPath, []byte("%PDF-1.4 previous run")))
		f.tools.FailRender = true

		result, err := f.pipeline.Execute(context.Background(), request())
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, []string{"/files/translate/report_fr.html"}, result.OutputPaths)
		assert.ErrorIs(t, result.Err, ErrIncompleteOutput)
		assert.False(t, f.store.Exists(outputPath))
	})
}

func TestExecuteCancellation(t *testing.T) {
	f := newFixture(t, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Execute(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)

	decrypts, _, _, _ := f.tools.Calls()
	assert.Zero(t, decrypts)
}

func TestProgressCallback(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.WriteFile(inputPath, []byte("%PDF fake")))
	tools := testutils.NewFakeTools(store, 5)

	var states []State
	var totals []int
	p, err := New(OptionsFromConfig(testutils.CreateTestConfig("/work")), store, tools.Toolkit(), &testutils.UpperProvider{},
		WithProgress(func(state State, done, total int) {
			states = append(states, state)
			totals = append(totals, done, total)
		}))
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, states, 9)
	assert.Equal(t, StateFileChecked, states[0])
	assert.Equal(t, StateOutputWritten, states[8])
	assert.Equal(t, []int{9, 9}, totals[len(totals)-2:])
}

func TestKeepTemp(t *testing.T) {
	f := newFixture(t, 5, func(o *Options) { o.KeepTemp = true })

	_, err := f.pipeline.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, f.store.Exists("/work/runx/report.pdf"))
}

func TestDetectLanguageWhenSourceMissing(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.WriteFile(inputPath, []byte("%PDF fake")))
	tools := testutils.NewFakeTools(store, 2)

	mp := &testutils.MockProvider{}
	mp.On("DetectLanguage", mock.Anything, mock.Anything).Return("de", nil).Once()
	mp.On("Translate", mock.Anything, mock.Anything).Return(&providers.ProviderResponse{Text: "Seite 1\nSeite 2\nFuß"}, nil)

	o := OptionsFromConfig(testutils.CreateTestConfig("/work"))
	o.DetectLanguage = true
	rec := &memRecorder{}
	p, err := New(o, store, tools.Toolkit(), mp, WithRecorder(rec))
	require.NoError(t, err)

	req := request()
	req.SourceLang = ""
	result, err := p.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	mp.AssertExpectations(t)

	require.Len(t, rec.records, 1)
	assert.Equal(t, "de", rec.records[0].DetectedSource)
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindExternalToolFailure, StateConverted, "failed to convert", errors.New("exit 1"))
	assert.Equal(t, "[Converted] failed to convert: exit 1", err.Error())
	assert.Equal(t, "PageCountExceeded", KindPageCountExceeded.String())
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
