package parser

import (
	"sort"
	"strings"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// sectionVocabulary 章节类别到标题同义词的声明式表
// 新增同义词只需修改此表；顺序只在同长度变体之间起决胜作用
var sectionVocabulary = []struct {
	Category types.SectionCategory
	Variants []string
}{
	{types.SectionSummary, []string{
		"summary", "professional summary", "career summary", "executive summary",
		"profile", "professional profile", "personal profile", "career profile",
		"about me", "about", "objective", "career objective", "professional objective",
		"overview", "personal statement", "summary of qualifications",
	}},
	{types.SectionExperience, []string{
		"experience", "work experience", "professional experience", "employment",
		"employment history", "work history", "career history", "professional background",
		"relevant experience", "career experience", "internships", "internship experience",
		"work & experience", "experience & employment",
	}},
	{types.SectionEducation, []string{
		"education", "educational background", "academic background", "education and training",
		"education & training", "academic qualifications", "academic history",
		"education history", "academics",
	}},
	{types.SectionSkills, []string{
		"skills", "technical skills", "core skills", "key skills", "core competencies",
		"competencies", "skills & expertise", "skills and expertise", "technologies",
		"technical expertise", "tools & technologies", "tools and technologies", "tech stack",
		"areas of expertise", "expertise", "professional skills", "hard skills", "soft skills",
		"programming languages", "skills & abilities", "skill set", "skillset",
	}},
	{types.SectionCertifications, []string{
		"certifications", "certificates", "certification", "licenses & certifications",
		"licenses and certifications", "licences & certifications", "professional certifications",
		"courses", "courses & certifications", "training & certifications", "accreditations",
		"licenses",
	}},
	{types.SectionLanguages, []string{
		"languages", "language skills", "language proficiency", "spoken languages",
		"foreign languages", "language",
	}},
	{types.SectionProjects, []string{
		"projects", "personal projects", "key projects", "academic projects", "selected projects",
		"side projects", "project experience", "portfolio", "open source",
		"open source contributions",
	}},
	{types.SectionAwards, []string{
		"awards", "honors", "honours", "awards & honors", "honors & awards", "achievements",
		"accomplishments", "awards and achievements", "recognition", "scholarships",
		"awards & achievements",
	}},
	{types.SectionVolunteer, []string{
		"volunteer", "volunteering", "volunteer experience", "volunteer work",
		"community service", "community involvement", "extracurricular activities",
		"leadership & activities", "activities",
	}},
	{types.SectionInterests, []string{
		"interests", "hobbies", "hobbies & interests", "hobbies and interests",
		"personal interests", "interests & hobbies", "activities & interests",
	}},
	{types.SectionReferences, []string{
		"references", "referees", "references available upon request",
	}},
}

type headerVariant struct {
	category types.SectionCategory
	text     string
	words    int
}

// headerVariants 按变体长度降序排列的扁平表，长度相同时保持表内顺序
var headerVariants = buildHeaderVariants()

func buildHeaderVariants() []headerVariant {
	var out []headerVariant
	for _, entry := range sectionVocabulary {
		for _, v := range entry.Variants {
			out = append(out, headerVariant{
				category: entry.Category,
				text:     v,
				words:    len(strings.Fields(v)),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].text) > len(out[j].text)
	})
	return out
}
