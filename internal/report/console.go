package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"beian/internal/model"
)

// 列宽与原始工具保持一致
var (
	baseWidths = []int{17, 20, 10}
	icpWidths  = []int{37, 10, 22}
)

// 控制台表头，CSV 表头另见 exporter
var (
	baseTitles = []string{"ip/domain", "反查域名", "百度权重"}
	icpTitles  = []string{"单位名称", "单位性质", "备案编号"}
)

// rankAttrs 权重越高颜色越醒目，错误标记为红色
var rankAttrs = map[string]color.Attribute{
	"0":  color.FgWhite,
	"1":  color.FgYellow,
	"2":  color.FgGreen,
	"3":  color.FgGreen,
	"4":  color.FgBlue,
	"5":  color.FgMagenta,
	"6":  color.FgCyan,
	"7":  color.FgRed,
	"8":  color.FgRed,
	"9":  color.FgRed,
	"10": color.FgRed,

	model.StatusConnError.String(): color.FgRed,
	model.StatusPageError.String(): color.FgRed,
}

// Printer 以固定列宽打印结果表格
type Printer struct {
	out    io.Writer
	icp    bool
	width  WidthFunc
	colors bool
}

// NewPrinter 终端不支持颜色时（color.NoColor）输出纯文本
func NewPrinter(out io.Writer, icp bool) *Printer {
	return &Printer{
		out:    out,
		icp:    icp,
		width:  DisplayWidth,
		colors: !color.NoColor,
	}
}

// SetWidthFunc 替换显示宽度的计算方式
func (p *Printer) SetWidthFunc(fn WidthFunc) {
	if fn != nil {
		p.width = fn
	}
}

// SetColors 强制开启或关闭颜色
func (p *Printer) SetColors(enabled bool) {
	p.colors = enabled
}

func (p *Printer) widths() []int {
	if p.icp {
		return append(append([]int{}, baseWidths...), icpWidths...)
	}
	return baseWidths
}

// Separator 返回形如 +-----+-----+ 的分隔线
func (p *Printer) Separator() string {
	var b strings.Builder
	b.WriteString("+")
	for _, w := range p.widths() {
		b.WriteString(strings.Repeat("-", w))
		b.WriteString("+")
	}
	return b.String()
}

// Title 打印表头
func (p *Printer) Title() {
	titles := baseTitles
	if p.icp {
		titles = append(append([]string{}, baseTitles...), icpTitles...)
	}

	var b strings.Builder
	b.WriteString("|")
	for i, w := range p.widths() {
		b.WriteString(p.pad(titles[i], w))
		b.WriteString("|")
	}

	sep := p.Separator()
	fmt.Fprintf(p.out, "%s\n%s\n%s\n", sep, b.String(), sep)
}

// Row 打印一行结果及其下方的分隔线，行首 \r 覆盖进度提示
func (p *Printer) Row(row model.ResultRow) {
	widths := p.widths()

	var b strings.Builder
	b.WriteString("\r|")
	b.WriteString(p.pad(row.Target, widths[0]))
	b.WriteString("|")
	b.WriteString(p.pad(row.Domain, widths[1]))
	b.WriteString("|")
	b.WriteString(p.paint(row.RankCell(), p.pad("    "+row.RankCell(), widths[2])))
	b.WriteString("|")
	if p.icp {
		reg := row.Registration
		for i, cell := range []string{reg.OrganizationName, reg.OrganizationType, reg.RegistrationID} {
			b.WriteString(p.pad(cell, widths[3+i]))
			b.WriteString("|")
		}
	}

	fmt.Fprintf(p.out, "%s\n%s\n", b.String(), p.Separator())
}

// Rows 依次打印多行
func (p *Printer) Rows(rows []model.ResultRow) {
	for _, row := range rows {
		p.Row(row)
	}
}

// Progress 原地刷新进度 (i/N)
func (p *Printer) Progress(current, total int) {
	fmt.Fprintf(p.out, "\r(%d/%d)", current, total)
}

// pad 右侧补空格至显示宽度 n，超宽时不截断
func (p *Printer) pad(s string, n int) string {
	if gap := n - p.width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func (p *Printer) paint(key, text string) string {
	attr, ok := rankAttrs[key]
	if !ok || !p.colors {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}
