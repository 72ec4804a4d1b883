package parser

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameScanLines     = 8
	jobTitleScanLines = 3
	locationScanLines = 15
	maxNameTokens     = 5
)

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// phonePatterns 按优先级排列，第一个命中的模式胜出
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[ \t.\-]?\(?\d{1,4}\)?(?:[ \t.\-]?\d{2,4}){2,4}`),
		regexp.MustCompile(`\b\d{10,12}\b`),
		regexp.MustCompile(`\(\d{3}\)[ \t]?\d{3}[ \t.\-]?\d{4}`),
		regexp.MustCompile(`\b\d{3}[ \t.\-]\d{3}[ \t.\-]\d{4}\b`),
	}

	linkedInRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|pub|company)/[A-Za-z0-9_\-%.]+`)
	gitHubRegex   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9_\-.]+`)
	urlRegex      = regexp.MustCompile(`(?i)https?://[^\s,;|()<>"']+`)

	zipCodeRegex  = regexp.MustCompile(`\b\d{5}\b`)
	locationRegex = regexp.MustCompile(`(\p{Lu}[\p{L}.'\-]*(?:[ \t]+\p{Lu}[\p{L}.'\-]*)*),[ \t]*(\p{Lu}{2}(?:[ \t]+\d{5}(?:-\d{4})?)?|\p{Lu}[\p{L}.'\-]*(?:[ \t]+\p{Lu}[\p{L}.'\-]*)*)\b`)
)

// Identity 联系方式与身份字段
type Identity struct {
	FullName string
	Email    string
	Phone    string
	Location string
	Website  string
	LinkedIn string
	GitHub   string
	JobTitle string
}

// ExtractIdentity 从行列表中提取联系方式、姓名、职位和所在地
// 各字段互相独立，不依赖章节切分的结果
func ExtractIdentity(lines []string) Identity {
	text := strings.Join(lines, "\n")

	id := Identity{
		Email:    emailRegex.FindString(text),
		Phone:    extractPhone(text),
		LinkedIn: normalizeProfileURL(linkedInRegex.FindString(text)),
		GitHub:   normalizeProfileURL(gitHubRegex.FindString(text)),
		Website:  extractWebsite(text),
		Location: extractLocation(lines),
	}

	name, nameIdx := extractFullName(lines)
	id.FullName = name
	if nameIdx >= 0 {
		id.JobTitle = extractJobTitle(lines, nameIdx)
	}
	return id
}

func extractPhone(text string) string {
	for _, re := range phonePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func normalizeProfileURL(raw string) string {
	raw = strings.TrimRight(raw, "./")
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return raw
	}
	return "https://" + raw
}

// extractWebsite 取第一个不属于 LinkedIn/GitHub 的链接
func extractWebsite(text string) string {
	for _, m := range urlRegex.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".")
		if isSocialURL(m) {
			continue
		}
		return m
	}
	return ""
}

func isSocialURL(raw string) bool {
	host := ""
	if u, err := url.Parse(raw); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	if host == "" {
		lower := strings.ToLower(raw)
		return strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com")
	}
	for _, social := range []string{"linkedin.com", "github.com"} {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}

// extractFullName 在前几行中寻找第一条像姓名的行
func extractFullName(lines []string) (string, int) {
	for i := 0; i < len(lines) && i < nameScanLines; i++ {
		line := strings.TrimSpace(lines[i])
		if looksLikeName(line) {
			return line, i
		}
	}
	return "", -1
}

func looksLikeName(line string) bool {
	if line == "" || strings.Contains(line, "@") || startsWithDigit(line) {
		return false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "http") || strings.Contains(lower, "linkedin") || strings.Contains(lower, "github") {
		return false
	}
	if IsHeaderLine(line) {
		return false
	}
	n := utf8.RuneCountInString(line)
	if n <= 2 || n >= 60 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsLetter(first) || unicode.IsLower(first) {
		return false
	}
	return len(strings.Fields(line)) <= maxNameTokens
}

// extractJobTitle 只在姓名行之后的少数几行中查找
func extractJobTitle(lines []string, nameIdx int) string {
	for i := nameIdx + 1; i < len(lines) && i <= nameIdx+jobTitleScanLines; i++ {
		line := strings.TrimSpace(lines[i])
		if looksLikeJobTitle(line) {
			return line
		}
	}
	return ""
}

func looksLikeJobTitle(line string) bool {
	if line == "" || strings.Contains(line, "@") || startsWithDigit(line) {
		return false
	}
	lower := strings.ToLower(line)
	for _, marker := range []string{"http", "www.", "linkedin", "github"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	if IsHeaderLine(line) {
		return false
	}
	n := utf8.RuneCountInString(line)
	if n < 3 || n > 80 {
		return false
	}
	if zipCodeRegex.MatchString(line) {
		return false
	}
	return extractPhone(line) == ""
}

// extractLocation "City, ST" 或 "City, Country" 形状的第一处匹配
// 该形状也会命中 "Company, City" 之类的文本，这里不做区分
func extractLocation(lines []string) string {
	for i := 0; i < len(lines) && i < locationScanLines; i++ {
		if m := locationRegex.FindString(lines[i]); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
