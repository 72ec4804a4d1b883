package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// maxWholeSkillRunes 没有分隔符的行短于该长度时整行作为一个技能
const maxWholeSkillRunes = 60

var skillDelimiterRegex = regexp.MustCompile(`[,;•]`)

// ParseSkillGroups 按行解析技能，保留 "Category:" 标签
func ParseSkillGroups(lines []string) []types.SkillGroup {
	groups := []types.SkillGroup{}
	for _, raw := range lines {
		line := stripBullet(raw)
		if line == "" {
			continue
		}

		label := ""
		body := line
		if idx := strings.IndexAny(line, ":："); idx >= 0 {
			label = strings.TrimSpace(line[:idx])
			_, size := utf8.DecodeRuneInString(line[idx:])
			body = strings.TrimSpace(line[idx+size:])
			if body == "" {
				continue
			}
		}

		var items []string
		switch {
		case skillDelimiterRegex.MatchString(body):
			items = splitSkillItems(body)
		case label != "" || utf8.RuneCountInString(body) < maxWholeSkillRunes:
			items = []string{body}
		}
		if len(items) == 0 {
			continue
		}
		groups = append(groups, types.SkillGroup{Category: label, Items: items})
	}
	return groups
}

// ParseSkills 技能扁平列表，只按完全相同的字符串去重
func ParseSkills(lines []string) []string {
	return flattenSkillGroups(ParseSkillGroups(lines))
}

func flattenSkillGroups(groups []types.SkillGroup) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, item := range g.Items {
			out = appendUnique(out, seen, item)
		}
	}
	return out
}

func splitSkillItems(body string) []string {
	var items []string
	for _, part := range skillDelimiterRegex.Split(body, -1) {
		part = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(part), "."))
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// ParseLanguages 去掉项目符号后原样保留
func ParseLanguages(lines []string) []string {
	return parsePlainList(lines)
}

// ParseCertifications 去掉项目符号后原样保留
func ParseCertifications(lines []string) []string {
	return parsePlainList(lines)
}

func parsePlainList(lines []string) []string {
	out := []string{}
	for _, l := range lines {
		if s := stripBullet(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseSummary 简介正文以单个空格连接
func ParseSummary(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
