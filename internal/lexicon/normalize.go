package lexicon

import (
	"strings"
	"unicode"
)

// Normalize 归一化叙述文本（大小写折叠，保留变音符号）
// 转写/翻译协作方已处理编码，这里只做匹配前的最小处理
func Normalize(text string) string {
	return strings.ToLower(text)
}

// token 归一化文本中的一个词（rune 偏移）
type token struct {
	text  string
	start int
	end   int
}

// tokenize 把归一化文本切分为词序列
// 词 = 连续的字母/数字；其他字符均为分隔符
// 整词匹配的基础：触发词只能命中完整的 token，不命中子串
func tokenize(text string) []token {
	var tokens []token
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{
				text:  string(runes[start:i]),
				start: start,
				end:   i,
			})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{
			text:  string(runes[start:]),
			start: start,
			end:   len(runes),
		})
	}
	return tokens
}
