package parser

import (
	"regexp"
	"strings"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

var (
	// degreeLongRegex 完整学位名，不区分大小写
	degreeLongRegex = regexp.MustCompile(`(?i)\b(?:bachelor(?:'s|s)?|master(?:'s|s)?|doctor(?:ate)?|ph\.?\s?d|associate(?:'s)? degree|diploma|high school|secondary school|a-levels?|gcse|b\.?\s?sc|m\.?\s?sc|b\.?\s?tech|m\.?\s?tech|b\.?\s?eng|m\.?\s?eng|postgraduate|undergraduate)`)

	// degreeAbbrRegex 学位缩写，区分大小写
	degreeAbbrRegex = regexp.MustCompile(`(?:^|[^A-Za-z])(B\.S\.|B\.A\.|M\.S\.|M\.A\.|Ph\.D\.|BSc|BEng|BBA|BFA|BCom|BCA|MSc|MEng|MBA|MFA|MCA|MPhil|LLB|LLM|BS|BA|MS|MA|MD|JD|AA|AS)(?:$|[^A-Za-z])`)

	// institutionRegex 院校关键词
	institutionRegex = regexp.MustCompile(`(?i)\b(?:university|college|institute|school|academy|polytechnic|conservatory|universidad|universit[éàä]|hochschule)`)

	// fieldMarkers 先找 "in" 再找 "of"
	fieldMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s+in\s+`),
		regexp.MustCompile(`(?i)\s+of\s+`),
	}
)

// isDegreeLine 是否包含学位关键词。", MA" 这类两字母缩写视为州名
func isDegreeLine(line string) bool {
	if degreeLongRegex.MatchString(line) {
		return true
	}
	for _, m := range degreeAbbrRegex.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[2], m[3]
		if end-start == 2 && start >= 2 && line[start-2:start] == ", " {
			continue
		}
		return true
	}
	return false
}

func isInstitutionLine(line string) bool {
	return institutionRegex.MatchString(line)
}

// ParseEducation 解析教育经历章节的行
// 同一行同时命中学位和院校时，原样写入两个字段
func ParseEducation(lines []string) []types.ParsedEducation {
	out := []types.ParsedEducation{}

	for i := 0; i < len(lines); i++ {
		line := stripBullet(lines[i])
		if line == "" {
			continue
		}
		degree, inst := isDegreeLine(line), isInstitutionLine(line)
		if !degree && !inst {
			continue
		}

		edu := types.ParsedEducation{}
		switch {
		case degree && inst:
			edu.Degree = line
			edu.Institution = line
		case degree:
			edu.Degree = line
			if next, ok := pairedLine(lines, i); ok && !isDegreeLine(next) {
				edu.Institution = next
				i++
			}
		default:
			edu.Institution = line
			if next, ok := pairedLine(lines, i); ok && !isInstitutionLine(next) {
				edu.Degree = next
				i++
			}
		}

		edu.EndDate = extractEducationDate(edu.Degree + " " + edu.Institution)
		if edu.EndDate != "" {
			edu.Degree = stripEducationDates(edu.Degree)
			edu.Institution = stripEducationDates(edu.Institution)
		}
		edu.Field = extractField(edu.Degree)
		out = append(out, edu)
	}
	return out
}

// pairedLine 下一行若存在且不是项目符号行则可被配对消费
func pairedLine(lines []string, i int) (string, bool) {
	if i+1 >= len(lines) || startsWithBullet(lines[i+1]) {
		return "", false
	}
	next := strings.TrimSpace(lines[i+1])
	return next, next != ""
}

// extractEducationDate 年份区间取结束年份，否则取最后一个年份
func extractEducationDate(text string) string {
	if m := eduYearRangeRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	all := eduYearRegex.FindAllString(text, -1)
	if len(all) == 0 {
		return ""
	}
	return strings.TrimSpace(all[len(all)-1])
}

func stripEducationDates(s string) string {
	s = eduYearRangeRegex.ReplaceAllString(s, " ")
	s = eduYearRegex.ReplaceAllString(s, " ")
	return cleanFragment(s)
}

// extractField 从学位文本第一个逗号段中取 "in|of" 之后的专业
func extractField(degree string) string {
	segment := degree
	if idx := strings.Index(segment, ","); idx >= 0 {
		segment = segment[:idx]
	}
	for _, marker := range fieldMarkers {
		if loc := marker.FindStringIndex(segment); loc != nil {
			field := segment[loc[1]:]
			if cut := strings.IndexAny(field, "(|–—"); cut >= 0 {
				field = field[:cut]
			}
			return cleanFragment(field)
		}
	}
	return ""
}
