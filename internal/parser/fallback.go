package parser

import (
	"strings"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// fallbackDescriptionLines 兜底解析时每条经历最多收集的描述行数
const fallbackDescriptionLines = 20

// FallbackExperience 在整篇文档中扫描日期区间，章节切分失败时使用
// 与章节内解析不同，这里即使没有职位和公司也保留条目
func FallbackExperience(lines []string) []types.ParsedExperience {
	out := []types.ParsedExperience{}

	for i, line := range lines {
		dr, ok := findDateRange(line)
		if !ok {
			continue
		}

		exp := types.ParsedExperience{StartDate: dr.Start, EndDate: dr.End}
		if rest := dateRemainder(line, dr); rest != "" {
			exp.Position, exp.Company, exp.Location = splitRoleCompany(rest)
		} else if i > 0 {
			prev := lines[i-1]
			if !IsHeaderLine(prev) && !isDateLine(prev) && !startsWithBullet(prev) {
				exp.Position, exp.Company, exp.Location = splitRoleCompany(prev)
			}
		}

		var desc []string
		for k := i + 1; k < len(lines) && k <= i+fallbackDescriptionLines; k++ {
			if isDateLine(lines[k]) || IsHeaderLine(lines[k]) {
				break
			}
			if k+1 < len(lines) && isBareDateLine(lines[k+1]) {
				// 下一条经历的标题行
				break
			}
			if text, keep := formatDescription(lines[k]); keep {
				desc = append(desc, text)
			}
		}
		exp.Description = strings.Join(desc, "\n")
		out = append(out, exp)
	}
	return out
}

// isBareDateLine 整行只有日期区间
func isBareDateLine(line string) bool {
	dr, ok := findDateRange(line)
	return ok && dateRemainder(line, dr) == ""
}

// FallbackSkills 在原文中按词边界、不区分大小写地匹配技能词典
// 输出保持词典顺序和词典中的规范写法
func FallbackSkills(text string, dict *SkillDictionary) []string {
	out := []string{}
	if dict == nil || strings.TrimSpace(text) == "" {
		return out
	}
	seen := make(map[string]bool)
	for _, term := range dict.terms {
		if term.pattern.MatchString(text) {
			out = appendUnique(out, seen, term.name)
		}
	}
	return out
}
