package board

import (
	"strings"
	"unicode"

	"github.com/kd9gek/bpq-chess/internal/rules"
)

// Render draws a position the way the BBS terminals expect it: plain ASCII,
// color prefix plus piece initial per square (WN = white knight, BK = black
// king), ranks descending. Pure display; all state questions go to the
// session store.
func Render(p rules.Position) string {
	grid := placement(p)
	var b strings.Builder
	b.WriteString("\n  A   B   C   D   E   F   G   H\n")
	for rank := 7; rank >= 0; rank-- {
		b.WriteByte(byte('1' + rank))
		b.WriteByte(' ')
		for file := 0; file < 8; file++ {
			cell := grid[rank][file]
			if cell == "" {
				b.WriteString(".   ")
				continue
			}
			b.WriteString(cell)
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// placement expands the piece-placement field of the FEN into an 8x8 grid
// of two-letter cells, [rank][file] with rank 0 = rank 1.
func placement(p rules.Position) [8][8]string {
	var grid [8][8]string
	fields := strings.Fields(p.FEN())
	if len(fields) == 0 {
		return grid
	}
	ranks := strings.Split(fields[0], "/")
	for i, row := range ranks {
		if i > 7 {
			break
		}
		rank := 7 - i
		file := 0
		for _, r := range row {
			if file > 7 {
				break
			}
			if r >= '1' && r <= '8' {
				file += int(r - '0')
				continue
			}
			color := "B"
			if unicode.IsUpper(r) {
				color = "W"
			}
			grid[rank][file] = color + string(unicode.ToUpper(r))
			file++
		}
	}
	return grid
}
