package pipeline

import (
	"time"

	"github.com/nerdneilsfield/go-pdf-translator/internal/splitter"
	provstats "github.com/nerdneilsfield/go-pdf-translator/pkg/providers/stats"
)

// State 运行所处的阶段
type State int

const (
	StateNew State = iota
	StateValidated
	StateFileChecked
	StateConditionsChecked
	StateSplit
	StateConverted
	StatePaused
	StateExtracted
	StateTranslated
	StateAssembled
	StateOutputWritten
	StateCleanedUp
)

var stateNames = [...]string{
	StateNew:               "New",
	StateValidated:         "Validated",
	StateFileChecked:       "FileChecked",
	StateConditionsChecked: "ConditionsChecked",
	StateSplit:             "Split",
	StateConverted:         "Converted",
	StatePaused:            "Paused",
	StateExtracted:         "Extracted",
	StateTranslated:        "Translated",
	StateAssembled:         "Assembled",
	StateOutputWritten:     "OutputWritten",
	StateCleanedUp:         "CleanedUp",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Request 一次翻译请求
type Request struct {
	InputPath  string
	OutputPath string
	SourceLang string // 为空时由翻译服务自动识别
	TargetLang string
	MaxPages   int // 为 0 时使用默认值
	SplitPages int
	ChunkSize  int
}

// Result 流水线结果，Success 当且仅当翻译后的 HTML 与 PDF 都已生成
type Result struct {
	Success     bool
	OutputPaths []string
	Err         error // 输出不完整时记录原因
}

// Run 一次运行的不可变快照
//
// 每个阶段返回新的 Run，切片字段整体替换而不在原处修改。
type Run struct {
	ID        string
	Request   Request
	State     State
	StartedAt time.Time

	WorkDir       string
	DecryptedPath string
	Pages         int

	Segments    []splitter.Segment
	MarkupPaths []string
	Original    [][]string
	Translated  [][]string

	DetectedLang string
	Usage        provstats.ProviderStats // 翻译阶段的远程调用统计
	HTMLPath     string
	PDFPath      string
	Replaced     int

	Result *Result
}

// with 复制当前快照并推进到 next
func (r *Run) with(next State, mutate func(*Run)) *Run {
	c := *r
	c.State = next
	if mutate != nil {
		mutate(&c)
	}
	return &c
}

// Fragments 原文片段总数
func (r *Run) Fragments() int {
	n := 0
	for _, seg := range r.Original {
		n += len(seg)
	}
	return n
}

// Characters 原文字符总数
func (r *Run) Characters() int {
	n := 0
	for _, seg := range r.Original {
		for _, f := range seg {
			n += len([]rune(f))
		}
	}
	return n
}
