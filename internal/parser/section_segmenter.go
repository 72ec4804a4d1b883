package parser

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

const (
	// maxHeaderRunes 超过该长度的行不视为章节标题候选
	maxHeaderRunes = 50
	// maxContainmentLen 子串包含匹配只对足够短的行生效
	maxContainmentLen = 30
	// extraHeaderWords 前缀/后缀/包含匹配允许的额外单词数
	extraHeaderWords = 2
)

// MatchHeader 判断一行是否为章节标题，返回匹配到的类别
// 变体按长度降序逐一测试，第一个命中即返回
func MatchHeader(line string) (types.SectionCategory, bool) {
	trimmed := strings.TrimSpace(line)
	if !isHeaderCandidate(trimmed) {
		return "", false
	}

	withAmp := normalizeHeader(trimmed, true)
	plain := normalizeHeader(trimmed, false)
	if withAmp == "" && plain == "" {
		return "", false
	}

	for _, v := range headerVariants {
		if headerMatches(withAmp, v) || headerMatches(plain, v) {
			return v.category, true
		}
	}
	return "", false
}

// IsHeaderLine 是否为任一类别的章节标题
func IsHeaderLine(line string) bool {
	_, ok := MatchHeader(line)
	return ok
}

// SegmentSections 扫描标题并把行列表切分成互不重叠的章节
// 每个类别只保留第一次出现；标题行本身不计入章节正文
func SegmentSections(lines []string) []types.DetectedSection {
	seen := make(map[types.SectionCategory]bool)
	var sections []types.DetectedSection

	for i, line := range lines {
		category, ok := MatchHeader(line)
		if !ok {
			continue
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		sections = append(sections, types.DetectedSection{Category: category, StartLine: i})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].StartLine < sections[j].StartLine
	})

	for i := range sections {
		end := len(lines)
		if i+1 < len(sections) {
			end = sections[i+1].StartLine
		}
		sections[i].EndLine = end
		body := make([]string, end-sections[i].StartLine-1)
		copy(body, lines[sections[i].StartLine+1:end])
		sections[i].Lines = body
	}

	return sections
}

// FindSection 返回指定类别的章节
func FindSection(sections []types.DetectedSection, category types.SectionCategory) (types.DetectedSection, bool) {
	for _, s := range sections {
		if s.Category == category {
			return s, true
		}
	}
	return types.DetectedSection{}, false
}

func headerMatches(n string, v headerVariant) bool {
	if n == "" {
		return false
	}
	if n == v.text {
		return true
	}

	words := len(strings.Fields(n))
	if words > v.words+extraHeaderWords {
		return false
	}
	if strings.HasPrefix(n, v.text+" ") || strings.HasSuffix(n, " "+v.text) {
		return true
	}
	return len(n) <= maxContainmentLen && strings.Contains(" "+n+" ", " "+v.text+" ")
}

// isHeaderCandidate 过滤不可能是标题的行：过长、项目符号开头、"标签: 内容" 形式或含数字
func isHeaderCandidate(line string) bool {
	if line == "" || utf8.RuneCountInString(line) > maxHeaderRunes {
		return false
	}
	if startsWithBullet(line) {
		return false
	}
	if idx := strings.IndexAny(line, ":："); idx >= 0 {
		rest := strings.TrimSpace(strings.TrimLeft(line[idx:], ":："))
		if rest != "" {
			return false
		}
	}
	return strings.IndexFunc(line, unicode.IsDigit) < 0
}

// normalizeHeader 只保留字母和空格（可选保留&），转小写并折叠空白
func normalizeHeader(line string, keepAmp bool) string {
	var sb strings.Builder
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(unicode.ToLower(r))
		case keepAmp && r == '&':
			sb.WriteString(" & ")
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
