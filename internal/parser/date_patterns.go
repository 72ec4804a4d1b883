package parser

import (
	"regexp"
	"strings"
)

const (
	monthToken = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	yearToken  = `(?:19|20)\d{2}`
	monthDate  = `(?:` + monthToken + `[ \t,]*` + yearToken + `|(?:0?[1-9]|1[0-2])/` + yearToken + `)`
	ongoing    = `(?:present|current|now|ongoing|today)`
	rangeSep   = `[ \t]*(?:-|–|—|to)[ \t]*`
)

var (
	// monthRangeRegex "Jan 2020 – Present"、"03/2019 - 05/2021"
	monthRangeRegex = regexp.MustCompile(`(?i)\b(` + monthDate + `)` + rangeSep + `(` + monthDate + `|` + ongoing + `)\b`)
	// yearRangeRegex "2019 - 2021"、"2019-Present"
	yearRangeRegex = regexp.MustCompile(`(?i)\b(` + yearToken + `)` + rangeSep + `(` + yearToken + `|` + ongoing + `)\b`)

	// 教育经历中的年份
	eduYearRangeRegex = regexp.MustCompile(`(?i)\b(` + yearToken + `)` + rangeSep + `(` + yearToken + `|` + ongoing + `|expected)\b`)
	eduYearRegex      = regexp.MustCompile(`(?i)(?:\b` + monthToken + `[ \t,]*)?\b` + yearToken + `\b`)

	emptyBracketRegex = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
)

// dateRange 一行中找到的日期区间
type dateRange struct {
	Start string
	End   string
	// 匹配在原行中的字节区间
	From, To int
}

// findDateRange 先试月份区间，再试纯年份区间
func findDateRange(line string) (dateRange, bool) {
	for _, re := range []*regexp.Regexp{monthRangeRegex, yearRangeRegex} {
		if m := re.FindStringSubmatchIndex(line); m != nil {
			return dateRange{
				Start: strings.TrimSpace(line[m[2]:m[3]]),
				End:   strings.TrimSpace(line[m[4]:m[5]]),
				From:  m[0],
				To:    m[1],
			}, true
		}
	}
	return dateRange{}, false
}

func isDateLine(line string) bool {
	_, ok := findDateRange(line)
	return ok
}

// dateRemainder 去掉日期后该行剩余的文本
func dateRemainder(line string, dr dateRange) string {
	rest := line[:dr.From] + " " + line[dr.To:]
	return cleanFragment(rest)
}

// cleanFragment 清理空括号、首尾分隔符并折叠空白
func cleanFragment(s string) string {
	s = emptyBracketRegex.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = trimSeparators(s)
	if strings.HasPrefix(s, "(") && !strings.Contains(s, ")") {
		s = s[1:]
	}
	if strings.HasSuffix(s, ")") && !strings.Contains(s, "(") {
		s = s[:len(s)-1]
	}
	return trimSeparators(s)
}
