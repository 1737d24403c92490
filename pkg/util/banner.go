package util

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

// colorCode 颜色名转 ANSI 转义码
func colorCode(name string) string {
	switch name {
	case "ColorRed":
		return ColorRed
	case "ColorGreen":
		return ColorGreen
	case "ColorYellow":
		return ColorYellow
	case "ColorBlue":
		return ColorBlue
	case "ColorCyan":
		return ColorCyan
	default:
		return ColorReset
	}
}

// PrintBanner 打印单色 ASCII banner，subtitle 非空时追加一行
func PrintBanner(w io.Writer, text, color, subtitle string) {
	ansiColor := colorCode(color)
	for _, line := range figure.NewFigure(text, "", true).Slicify() {
		fmt.Fprintln(w, ansiColor+line+ColorReset)
	}
	if subtitle != "" {
		fmt.Fprintln(w, subtitle)
	}
}
