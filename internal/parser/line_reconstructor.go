package parser

import (
	"sort"
	"strings"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

const (
	// sameLineTolerance 同一基线的纵向容差
	sameLineTolerance = 3.0
	// narrowGap 小于该间距的片段直接拼接
	narrowGap = 1.0
	// wideGap 大于该间距视为分栏，插入两个空格
	wideGap = 5.0
)

// ReconstructPage 将单页的片段按阅读顺序拼接成逻辑行
// 返回的每一行都已去除首尾空白且非空
func ReconstructPage(fragments []types.PositionedFragment) []string {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]types.PositionedFragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Text == "" {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var group []types.PositionedFragment
	groupY := 0.0

	flush := func() {
		if len(group) == 0 {
			return
		}
		if line := joinGroup(group); line != "" {
			lines = append(lines, line)
		}
		group = group[:0]
	}

	for _, f := range sorted {
		if len(group) > 0 && abs(f.Y-groupY) >= sameLineTolerance {
			flush()
		}
		if len(group) == 0 {
			groupY = f.Y
		}
		group = append(group, f)
	}
	flush()

	return lines
}

// ReconstructLines 逐页重建并拼接，非空页面之间保留一个空行
func ReconstructLines(pages [][]types.PositionedFragment) []string {
	var out []string
	for _, page := range pages {
		lines := ReconstructPage(page)
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, lines...)
	}
	return out
}

func joinGroup(group []types.PositionedFragment) string {
	sort.SliceStable(group, func(i, j int) bool { return group[i].X < group[j].X })

	var sb strings.Builder
	for i, f := range group {
		if i > 0 {
			prev := group[i-1]
			gap := f.X - (prev.X + prev.Width)
			switch {
			case gap > wideGap:
				sb.WriteString("  ")
			case gap >= narrowGap:
				sb.WriteString(" ")
			}
		}
		sb.WriteString(f.Text)
	}
	return strings.TrimSpace(sb.String())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
