package report

import (
	"unicode"

	"golang.org/x/text/width"
)

// WidthFunc 计算文本在终端中的显示宽度
type WidthFunc func(s string) int

// DisplayWidth 东亚宽字符与全角字符计为2列，组合符号计为0列
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
			continue
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Me, r):
			continue
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

