package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// bulletMarkers 识别为项目符号的行首字符
const bulletMarkers = "•-–—*·▪●◦►‣○■➢✓"

func startsWithBullet(line string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(line))
	return r != utf8.RuneError && strings.ContainsRune(bulletMarkers, r)
}

// stripBullet 去掉行首的项目符号及其后的空白
func stripBullet(line string) string {
	s := strings.TrimSpace(line)
	for s != "" {
		r, size := utf8.DecodeRuneInString(s)
		if !strings.ContainsRune(bulletMarkers, r) {
			break
		}
		s = strings.TrimSpace(s[size:])
	}
	return s
}

// splitLines 按换行切分并返回去空白后的非空行
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

// trimSeparators 去掉首尾残留的分隔符
func trimSeparators(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;|-–—·", r)
	})
}

func appendUnique(list []string, seen map[string]bool, item string) []string {
	if item == "" || seen[item] {
		return list
	}
	seen[item] = true
	return append(list, item)
}
