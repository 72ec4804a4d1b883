package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

func TestMatchHeader(t *testing.T) {
	tests := []struct {
		line     string
		want     types.SectionCategory
		isHeader bool
	}{
		{"EXPERIENCE", types.SectionExperience, true},
		{"Work Experience", types.SectionExperience, true},
		{"Technical Skills", types.SectionSkills, true},
		{"Skills:", types.SectionSkills, true},
		{"Licenses & Certifications", types.SectionCertifications, true},
		{"Volunteer Experience", types.SectionVolunteer, true},
		{"Project Experience", types.SectionProjects, true},
		{"Professional Summary", types.SectionSummary, true},
		{"Hobbies & Interests", types.SectionInterests, true},
		{"Languages: Python, Go", "", false},
		{"• Skills", "", false},
		{"Experience 2019", "", false},
		{"Jane Doe", "", false},
		{"Led a team that improved the experience of thousands of customers", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := MatchHeader(tt.line)
			assert.Equal(t, tt.isHeader, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchHeader_LongerVariantWins(t *testing.T) {
	// "technical skills" 与 "skills" 都能匹配，只应归入一个类别
	lines := []string{"Technical Skills", "Go, Rust"}
	sections := SegmentSections(lines)
	require.Len(t, sections, 1)
	assert.Equal(t, types.SectionSkills, sections[0].Category)
}

func TestSegmentSections(t *testing.T) {
	lines := []string{
		"Jane Doe",
		"Summary",
		"Builder of things.",
		"Experience",
		"Dev at Foo",
		"Skills",
		"Go, Rust",
		"Experience",
		"More text",
	}

	sections := SegmentSections(lines)
	require.Len(t, sections, 3)

	assert.Equal(t, types.DetectedSection{
		Category: types.SectionSummary, StartLine: 1, EndLine: 3, Lines: []string{"Builder of things."},
	}, sections[0])
	assert.Equal(t, types.DetectedSection{
		Category: types.SectionExperience, StartLine: 3, EndLine: 5, Lines: []string{"Dev at Foo"},
	}, sections[1])
	assert.Equal(t, types.DetectedSection{
		Category: types.SectionSkills, StartLine: 5, EndLine: 9, Lines: []string{"Go, Rust", "Experience", "More text"},
	}, sections[2], "重复出现的标题只保留第一次，后续出现留在正文中")

	assert.Equal(t, len(lines), coveredLines(sections, len(lines)))
}

func TestFindSection(t *testing.T) {
	sections := SegmentSections([]string{"Jane Doe", "Experience", "Dev at Foo", "Skills", "Go"})

	sec, ok := FindSection(sections, types.SectionSkills)
	require.True(t, ok)
	assert.Equal(t, []string{"Go"}, sec.Lines)

	_, ok = FindSection(sections, types.SectionEducation)
	assert.False(t, ok)
}

// 标题词加最多两个额外词即视为标题，带章节词的职位名会被当成标题
func TestMatchHeader_TitlesContainingSectionWords(t *testing.T) {
	tests := map[string]types.SectionCategory{
		"Volunteer Coordinator":   types.SectionVolunteer,
		"Profile Manager":         types.SectionSummary,
		"About Acme Corp":         types.SectionSummary,
		"Language Teacher":        types.SectionLanguages,
		"Skills Development Lead": types.SectionSkills,
	}
	for line, want := range tests {
		got, ok := MatchHeader(line)
		assert.True(t, ok, line)
		assert.Equal(t, want, got, line)
	}

	sections := SegmentSections([]string{
		"Experience",
		"Acme Corp",
		"Volunteer Coordinator",
		"2019 - 2021",
	})
	require.Len(t, sections, 2)
	assert.Equal(t, []string{"Acme Corp"}, sections[0].Lines)
	assert.Equal(t, types.SectionVolunteer, sections[1].Category)
}

func TestSegmentSections_NoHeaders(t *testing.T) {
	assert.Empty(t, SegmentSections([]string{"just", "some", "text"}))
	assert.Empty(t, SegmentSections(nil))
}

// coveredLines 前导行 + 每个章节(标题行+正文) 的总行数
func coveredLines(sections []types.DetectedSection, total int) int {
	if len(sections) == 0 {
		return total
	}
	n := sections[0].StartLine
	for _, s := range sections {
		n += 1 + len(s.Lines)
	}
	return n
}
