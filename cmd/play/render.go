package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/blastlab/sdk/blast"
)

const (
	glyphFull  = "■"
	glyphEmpty = "·"
	cellWidth  = 2
)

// cell 把一個字符補到固定顯示寬度；■ 在部分東亞終端是寬字元，靠 runewidth 對齊
func cell(g string) string {
	return runewidth.FillRight(g, cellWidth)
}

func renderHeader(w io.Writer, v blast.RoundView) {
	fmt.Fprintf(w, "score %d  combo %d  max combo %d  placements %d  lines %d  fill %.0f%%  [%s]\n",
		v.Score, v.Combo, v.MaxCombo, v.Placements, v.Lines, v.FillRatio*100, v.State)
}

func renderBoard(w io.Writer, v blast.RoundView) {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < blast.Cols; c++ {
		sb.WriteString(runewidth.FillRight(fmt.Sprint(c), cellWidth))
	}
	sb.WriteByte('\n')
	for r := 0; r < blast.Rows; r++ {
		fmt.Fprintf(&sb, "%d  ", r)
		for c := 0; c < blast.Cols; c++ {
			if v.Board[r][c] != 0 {
				sb.WriteString(cell(glyphFull))
			} else {
				sb.WriteString(cell(glyphEmpty))
			}
		}
		sb.WriteByte('\n')
	}
	io.WriteString(w, sb.String())
}

// pieceLines 把一塊畫成多行，第一行是標籤
func pieceLines(d blast.DrawView) []string {
	label := fmt.Sprintf("[%d] %s", d.Slot, d.Name)
	if d.Consumed {
		label += " (used)"
	}
	out := []string{label}
	if d.Consumed {
		return out
	}
	for _, row := range d.Mask {
		var sb strings.Builder
		for _, m := range row {
			if m != 0 {
				sb.WriteString(cell(glyphFull))
			} else {
				sb.WriteString(cell(" "))
			}
		}
		out = append(out, strings.TrimRight(sb.String(), " "))
	}
	return out
}

// renderDraw 三塊並排，每欄以最寬的一行補齊
func renderDraw(w io.Writer, v blast.RoundView) {
	cols := make([][]string, len(v.Draw))
	widths := make([]int, len(v.Draw))
	height := 0
	for i, d := range v.Draw {
		cols[i] = pieceLines(d)
		for _, l := range cols[i] {
			widths[i] = max(widths[i], runewidth.StringWidth(l))
		}
		height = max(height, len(cols[i]))
	}
	for h := 0; h < height; h++ {
		var sb strings.Builder
		for i := range cols {
			l := ""
			if h < len(cols[i]) {
				l = cols[i][h]
			}
			sb.WriteString(runewidth.FillRight(l, widths[i]+4))
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}

func render(w io.Writer, v blast.RoundView) {
	renderHeader(w, v)
	renderBoard(w, v)
	fmt.Fprintln(w)
	renderDraw(w, v)
}
