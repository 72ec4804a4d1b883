package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

func TestReconstructPage_OrderAndSpacing(t *testing.T) {
	fragments := []types.PositionedFragment{
		{Text: "bar", X: 25.5, Y: 660, Width: 15},
		{Text: "Doe", X: 36, Y: 701, Width: 20},
		{Text: "2020", X: 200, Y: 680, Width: 20},
		{Text: "Jane", X: 10, Y: 700, Width: 25},
		{Text: "Engineer", X: 10, Y: 680, Width: 40},
		{Text: "foo", X: 10, Y: 660, Width: 15},
	}

	lines := ReconstructPage(fragments)
	assert.Equal(t, []string{"Jane Doe", "Engineer  2020", "foobar"}, lines, "应按从上到下、从左到右重建，并按间距插入空格")
}

func TestReconstructPage_ToleranceBand(t *testing.T) {
	t.Run("差值达到3时换行", func(t *testing.T) {
		lines := ReconstructPage([]types.PositionedFragment{
			{Text: "A", X: 0, Y: 700, Width: 5},
			{Text: "B", X: 10, Y: 697, Width: 5},
		})
		assert.Equal(t, []string{"A", "B"}, lines)
	})

	t.Run("以组内第一个片段的Y为基准", func(t *testing.T) {
		lines := ReconstructPage([]types.PositionedFragment{
			{Text: "one", X: 0, Y: 700, Width: 10},
			{Text: "two", X: 12, Y: 698, Width: 10},
			{Text: "three", X: 0, Y: 696, Width: 10},
		})
		assert.Equal(t, []string{"one two", "three"}, lines)
	})
}

func TestReconstructPage_DropsEmpty(t *testing.T) {
	assert.Empty(t, ReconstructPage(nil))
	assert.Empty(t, ReconstructPage([]types.PositionedFragment{
		{Text: " ", X: 0, Y: 100, Width: 3},
		{Text: "", X: 5, Y: 80, Width: 0},
	}), "只有空白的行应被丢弃")
}

func TestReconstructLines_PageSeparators(t *testing.T) {
	page := func(text string) []types.PositionedFragment {
		return []types.PositionedFragment{{Text: text, X: 0, Y: 500, Width: 10}}
	}

	lines := ReconstructLines([][]types.PositionedFragment{
		{},
		page("first"),
		{},
		page("second"),
	})
	assert.Equal(t, []string{"first", "", "second"}, lines, "空页不产生分隔行，非空页之间只有一个空行")

	assert.Empty(t, ReconstructLines(nil))
}
