package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

func TestParseSkills_LabelledLines(t *testing.T) {
	lines := []string{"Languages: Python, Go", "Frontend: React"}
	assert.Equal(t, []string{"Python", "Go", "React"}, ParseSkills(lines))

	assert.Equal(t, []types.SkillGroup{
		{Category: "Languages", Items: []string{"Python", "Go"}},
		{Category: "Frontend", Items: []string{"React"}},
	}, ParseSkillGroups(lines))
}

func TestParseSkills_Delimiters(t *testing.T) {
	lines := []string{
		"• Docker; Kubernetes • Helm",
		"Go, Go, Rust",
		"Strong communication skills",
		strings.Repeat("x", 70),
		"Tools:",
		"go",
	}
	assert.Equal(t, []string{
		"Docker", "Kubernetes", "Helm", "Go", "Rust", "Strong communication skills", "go",
	}, ParseSkills(lines), "只去除完全相同的重复项，过长且无分隔符的行被丢弃")
}

func TestParseSkillGroups_LabelKeepsLongBody(t *testing.T) {
	body := strings.Repeat("a", 70)
	groups := ParseSkillGroups([]string{"Soft: " + body})
	assert.Equal(t, []types.SkillGroup{{Category: "Soft", Items: []string{body}}}, groups)
}

func TestParseLanguagesAndCertifications(t *testing.T) {
	assert.Equal(t, []string{"English (Native)", "Spanish"},
		ParseLanguages([]string{"• English (Native)", "", "- Spanish"}))
	assert.Equal(t, []string{"AWS Certified Solutions Architect"},
		ParseCertifications([]string{"▪ AWS Certified Solutions Architect"}))
	assert.Equal(t, []string{}, ParseLanguages(nil))
}

func TestParseSummary(t *testing.T) {
	assert.Equal(t, "Builds things. Ships them.", ParseSummary([]string{" Builds things.", "", "Ships them. "}))
	assert.Empty(t, ParseSummary(nil))
}
