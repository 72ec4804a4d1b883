package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

func TestFallbackExperience(t *testing.T) {
	lines := []string{
		"Jane Doe",
		"Engineer | Acme Corp",
		"2019 - 2022",
		"• Built things",
		"Random text that is long enough",
		"Beta Inc",
		"2016 - 2019",
		"• More",
	}

	got := FallbackExperience(lines)
	require.Len(t, got, 2)
	assert.Equal(t, types.ParsedExperience{
		Position:    "Engineer",
		Company:     "Acme Corp",
		StartDate:   "2019",
		EndDate:     "2022",
		Description: "• Built things\n• Random text that is long enough",
	}, got[0], "下一行是纯日期行时，当前行视为下一条经历的标题")
	assert.Equal(t, types.ParsedExperience{
		Position:    "Beta Inc",
		StartDate:   "2016",
		EndDate:     "2019",
		Description: "• More",
	}, got[1])
}

func TestFallbackExperience_KeepsAnonymousEntries(t *testing.T) {
	got := FallbackExperience([]string{"2019 - 2022"})
	require.Len(t, got, 1)
	assert.Equal(t, types.ParsedExperience{StartDate: "2019", EndDate: "2022"}, got[0])
}

func TestFallbackExperience_StopsAtHeader(t *testing.T) {
	got := FallbackExperience([]string{"2019 - 2022", "• a thing done", "Education", "• not included"})
	require.Len(t, got, 1)
	assert.Equal(t, "• a thing done", got[0].Description)
}

func TestFallbackSkills(t *testing.T) {
	got := FallbackSkills("worked with docker and KUBERNETES; javascript", defaultSkillDictionary)
	assert.Equal(t, []string{"JavaScript", "Docker", "Kubernetes"}, got, "按词典顺序输出规范写法，Java 不应命中 javascript")

	assert.Equal(t, []string{}, FallbackSkills("", defaultSkillDictionary))
	assert.Equal(t, []string{}, FallbackSkills("docker", nil))
}

func TestSkillDictionary_Extra(t *testing.T) {
	dict, err := NewSkillDictionary("Temporal", "docker", "  ")
	require.NoError(t, err)

	names := dict.Names()
	assert.Equal(t, len(defaultSkillNames)+1, len(names), "与默认词条大小写不同的重复项应被忽略")
	assert.Equal(t, "Temporal", names[len(names)-1])

	assert.Contains(t, FallbackSkills("uses temporal workflows", dict), "Temporal")
}

func TestSkillDictionary_SymbolNames(t *testing.T) {
	got := FallbackSkills("C++ and C# on .NET, CI/CD", defaultSkillDictionary)
	assert.Equal(t, []string{"C++", "C#", ".NET", "CI/CD"}, got)
}
