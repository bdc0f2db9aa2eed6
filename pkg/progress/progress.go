// Package progress 在终端显示流水线阶段进度与结束汇总
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Tracker 按阶段推进的进度条
type Tracker struct {
	mu sync.Mutex

	total     int
	completed int
	startTime time.Time
	writer    io.Writer
	message   string
	isDone    bool

	barWidth      int
	completedChar string
	remainingChar string

	percentColor text.Colors
	barColor     text.Colors
	stageColor   text.Colors
	timeColor    text.Colors
	messageColor text.Colors
}

// Option 定义进度跟踪器的选项
type Option func(*Tracker)

// WithWriter 设置输出写入器
func WithWriter(writer io.Writer) Option {
	return func(pt *Tracker) {
		pt.writer = writer
	}
}

// WithBarStyle 设置进度条宽度与字符
func WithBarStyle(width int, completedChar, remainingChar string) Option {
	return func(pt *Tracker) {
		pt.barWidth = width
		pt.completedChar = completedChar
		pt.remainingChar = remainingChar
	}
}

// WithoutColors 关闭颜色输出
func WithoutColors() Option {
	return func(pt *Tracker) {
		pt.percentColor = nil
		pt.barColor = nil
		pt.stageColor = nil
		pt.timeColor = nil
		pt.messageColor = nil
	}
}

// NewTracker 创建进度跟踪器，total 为阶段总数
func NewTracker(total int, options ...Option) *Tracker {
	pt := &Tracker{
		total:         total,
		startTime:     time.Now(),
		writer:        os.Stderr,
		message:       "准备",
		barWidth:      30,
		completedChar: "█",
		remainingChar: "░",
		percentColor:  text.Colors{text.FgHiWhite},
		barColor:      text.Colors{text.FgCyan},
		stageColor:    text.Colors{text.FgYellow},
		timeColor:     text.Colors{text.FgGreen},
		messageColor:  text.Colors{text.FgWhite},
	}
	for _, option := range options {
		option(pt)
	}
	return pt
}

// Update 记录已完成的阶段数与当前阶段名称并重绘
func (pt *Tracker) Update(completed int, message string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.isDone {
		return
	}
	if completed > pt.total {
		completed = pt.total
	}
	pt.completed = completed
	pt.message = message
	pt.render()
}

// GetPercentage 获取完成百分比
func (pt *Tracker) GetPercentage() float64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.total <= 0 {
		return 0
	}
	return float64(pt.completed) / float64(pt.total) * 100
}

// Done 结束进度条，summary 不为空时输出汇总表
func (pt *Tracker) Done(summary *Summary) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.isDone {
		return
	}
	pt.isDone = true
	pt.render()
	fmt.Fprintln(pt.writer)

	if summary != nil {
		pt.renderSummaryTable(summary)
	}
}

// render 渲染进度条
func (pt *Tracker) render() {
	if pt.writer == nil {
		return
	}

	var percent float64
	if pt.total > 0 {
		percent = float64(pt.completed) / float64(pt.total) * 100
	}

	var builder strings.Builder
	builder.WriteString("\x1b[K\r")

	if pt.message != "" {
		builder.WriteString(pt.messageColor.Sprint(pt.message))
		builder.WriteString(": ")
	}

	builder.WriteString(pt.percentColor.Sprint(fmt.Sprintf("%5.1f%%", percent)))
	builder.WriteString(" [")

	completedWidth := 0
	if pt.total > 0 {
		completedWidth = pt.barWidth * pt.completed / pt.total
	}
	if completedWidth > 0 {
		builder.WriteString(pt.barColor.Sprint(strings.Repeat(pt.completedChar, completedWidth)))
	}
	if rest := pt.barWidth - completedWidth; rest > 0 {
		builder.WriteString(strings.Repeat(pt.remainingChar, rest))
	}
	builder.WriteString("] ")

	builder.WriteString(pt.stageColor.Sprint(fmt.Sprintf("%d/%d 阶段", pt.completed, pt.total)))
	builder.WriteString(" ")
	builder.WriteString(pt.timeColor.Sprint("用时: " + formatDuration(time.Since(pt.startTime))))

	fmt.Fprint(pt.writer, builder.String())
}

// SummaryRow 汇总表的一行
type SummaryRow struct {
	Name  string
	Value string
}

// Summary 运行结束后的汇总信息
type Summary struct {
	Rows      []SummaryRow
	TotalTime time.Duration
}

// Add 追加一行
func (s *Summary) Add(name string, value any) {
	s.Rows = append(s.Rows, SummaryRow{Name: name, Value: fmt.Sprint(value)})
}

// renderSummaryTable 渲染最终的总结表格
func (pt *Tracker) renderSummaryTable(summary *Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(pt.writer)

	tw.AppendHeader(table.Row{"项", "值"})
	for _, row := range summary.Rows {
		tw.AppendRow(table.Row{row.Name, row.Value})
	}
	if summary.TotalTime > 0 {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"总耗时", formatDuration(summary.TotalTime)})
	}

	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// formatDuration 格式化时间间隔
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
