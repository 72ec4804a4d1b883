package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

const (
	// backWalkLines 日期行之前最多回看的行数
	backWalkLines = 3
	// maxCompanyRunes 向后窥视的公司行长度上限
	maxCompanyRunes = 80
	// minLooseDescriptionRunes 非项目符号行至少要这么长才算描述
	minLooseDescriptionRunes = 15
)

// roleSeparators 职位与公司之间的分隔符，按优先级排列
var roleSeparators = []string{" at ", " | ", "|", " — ", " – ", " - ", "—", "–"}

// corporateSuffixes 逗号后出现这些词时不当作地点
var corporateSuffixes = []string{
	"inc", "inc.", "llc", "l.l.c.", "ltd", "ltd.", "limited", "corp", "corp.", "corporation",
	"co", "co.", "gmbh", "llp", "plc", "s.a.", "sa", "ag", "pvt", "pvt.", "pty", "pty.", "bv", "b.v.",
}

// splitRoleCompany 按第一个命中的分隔符拆分：左侧职位，右侧公司，公司后的 ", XX" 作为地点
func splitRoleCompany(text string) (position, company, location string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", ""
	}

	for _, sep := range roleSeparators {
		idx := indexSeparator(text, sep)
		if idx < 0 {
			continue
		}
		position = cleanFragment(text[:idx])
		right := strings.TrimSpace(text[idx+len(sep):])

		if second := indexSeparator(right, sep); second >= 0 {
			company = cleanFragment(right[:second])
			location = cleanFragment(right[second+len(sep):])
			return position, company, location
		}
		company, location = peelLocation(right)
		return position, company, location
	}
	return cleanFragment(text), "", ""
}

func indexSeparator(text, sep string) int {
	if sep == " at " {
		return strings.Index(strings.ToLower(text), sep)
	}
	return strings.Index(text, sep)
}

// peelLocation 把 "Acme Corp, Austin, TX" 拆成公司与地点，跳过公司后缀
func peelLocation(text string) (company, location string) {
	text = strings.TrimSpace(text)
	offset := 0
	for {
		idx := strings.Index(text[offset:], ",")
		if idx < 0 {
			return cleanFragment(text), ""
		}
		idx += offset
		rest := strings.TrimSpace(text[idx+1:])
		if rest == "" {
			return cleanFragment(text[:idx]), ""
		}
		if !startsWithCorporateSuffix(rest) {
			return cleanFragment(text[:idx]), cleanFragment(rest)
		}
		offset = idx + 1
	}
}

func startsWithCorporateSuffix(s string) bool {
	first := strings.ToLower(strings.TrimRight(strings.Fields(s)[0], ","))
	for _, suffix := range corporateSuffixes {
		if first == suffix {
			return true
		}
	}
	return false
}

// experienceEntry 正在累积的一条经历
type experienceEntry struct {
	types.ParsedExperience
	desc []descLine
}

type descLine struct {
	index int
	text  string
}

func (e *experienceEntry) dropLines(claimed map[int]bool) {
	if len(claimed) == 0 {
		return
	}
	kept := e.desc[:0]
	for _, d := range e.desc {
		if !claimed[d.index] {
			kept = append(kept, d)
		}
	}
	e.desc = kept
}

func (e *experienceEntry) finish() (types.ParsedExperience, bool) {
	if e.Position == "" && e.Company == "" {
		return types.ParsedExperience{}, false
	}
	texts := make([]string, len(e.desc))
	for i, d := range e.desc {
		texts[i] = d.text
	}
	out := e.ParsedExperience
	out.Description = strings.Join(texts, "\n")
	return out, true
}

// formatDescription 项目符号行和较长的普通行统一加上 "• "，短普通行丢弃
func formatDescription(line string) (string, bool) {
	if startsWithBullet(line) {
		body := stripBullet(line)
		if body == "" {
			return "", false
		}
		return "• " + body, true
	}
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= minLooseDescriptionRunes {
		return "", false
	}
	return "• " + line, true
}

// ParseExperience 解析工作经历章节的行
func ParseExperience(lines []string) []types.ParsedExperience {
	out := []types.ParsedExperience{}
	var cur *experienceEntry
	consumed := make(map[int]bool)
	lastDate := -1

	for i, line := range lines {
		dr, ok := findDateRange(line)
		if !ok {
			if cur != nil && !consumed[i] {
				if text, keep := formatDescription(line); keep {
					cur.desc = append(cur.desc, descLine{index: i, text: text})
				}
			}
			continue
		}

		next := &experienceEntry{}
		next.StartDate = dr.Start
		next.EndDate = dr.End

		claimed := make(map[int]bool)
		if rest := dateRemainder(line, dr); rest != "" {
			next.Position, next.Company, next.Location = splitRoleCompany(rest)
		} else {
			next.Position, next.Company, next.Location, claimed = walkBack(lines, i, lastDate, consumed)
		}

		if cur != nil {
			cur.dropLines(claimed)
			if exp, keep := cur.finish(); keep {
				out = append(out, exp)
			}
		}

		if next.Position != "" && next.Company == "" && i+1 < len(lines) {
			peek := lines[i+1]
			if !startsWithBullet(peek) && !isDateLine(peek) && utf8.RuneCountInString(peek) < maxCompanyRunes {
				next.Company, next.Location = peelCompanyLine(peek, next.Location)
				consumed[i+1] = true
			}
		}

		cur = next
		lastDate = i
	}

	if cur != nil {
		if exp, keep := cur.finish(); keep {
			out = append(out, exp)
		}
	}
	return out
}

// walkBack 向前回看最多三行，最近的非项目符号、非日期行作为职位，再往前一行作为公司
func walkBack(lines []string, dateIdx, floor int, consumed map[int]bool) (position, company, location string, claimed map[int]bool) {
	claimed = make(map[int]bool)
	for j := dateIdx - 1; j >= 0 && j > floor && j >= dateIdx-backWalkLines; j-- {
		line := lines[j]
		if startsWithBullet(line) || consumed[j] {
			continue
		}
		if isDateLine(line) {
			break
		}
		position, company, location = splitRoleCompany(line)
		claimed[j] = true

		if company == "" && j-1 > floor && j-1 >= 0 && !consumed[j-1] {
			prev := lines[j-1]
			if !startsWithBullet(prev) && !isDateLine(prev) && !IsHeaderLine(prev) &&
				utf8.RuneCountInString(prev) < maxCompanyRunes {
				company, location = peelCompanyLine(prev, location)
				claimed[j-1] = true
			}
		}
		return position, company, location, claimed
	}
	return "", "", "", claimed
}

// peelCompanyLine 公司行上可能还带着地点
func peelCompanyLine(line, location string) (string, string) {
	company, loc := peelLocation(line)
	if location == "" {
		location = loc
	}
	return company, location
}
