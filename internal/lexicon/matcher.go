package lexicon

import (
	"sort"
	"strings"

	"wisefido-careguard/internal/models"
)

// entry 词表条目（预切分，支持多词短语）
type entry struct {
	term     string
	words    []string
	category models.Category
}

// termSet 按首词索引的词表（同首词的条目按短语长度降序）
type termSet map[string][]entry

func buildTermSet(terms map[string]models.Category) termSet {
	set := make(termSet)
	for term, cat := range terms {
		words := strings.Fields(term)
		if len(words) == 0 {
			continue
		}
		set[words[0]] = append(set[words[0]], entry{
			term:     term,
			words:    words,
			category: cat,
		})
	}
	// 长短语优先，保证 "bring dich um" 先于 "bring" 类单词命中
	for first := range set {
		entries := set[first]
		sort.Slice(entries, func(i, j int) bool {
			return len(entries[i].words) > len(entries[j].words)
		})
	}
	return set
}

// Matcher 触发词匹配器
// 纯函数：输入文本+语言标签，输出命中列表，无副作用
type Matcher struct {
	languages map[models.LanguageCode]termSet
	generic   termSet
}

// NewMatcher 创建匹配器（内置词表）
func NewMatcher() *Matcher {
	m := &Matcher{
		languages: make(map[models.LanguageCode]termSet),
		generic:   buildTermSet(buildGenericTerms()),
	}
	for lang, terms := range languageTerms {
		m.languages[lang] = buildTermSet(terms)
	}
	return m
}

// Match 扫描归一化后的文本，返回整词/整短语命中
// 返回值 languageKnown=false 表示语言标签未知，
// 已回退到通用词表，结果置信度为 UNDETERMINED —— 从不报错
func (m *Matcher) Match(text string, lang models.LanguageCode) ([]models.Match, bool) {
	langSet, languageKnown := m.languages[lang]

	tokens := tokenize(Normalize(text))
	var matches []models.Match

	for i := 0; i < len(tokens); {
		var best *entry
		if languageKnown {
			best = lookupAt(langSet, tokens, i)
		}
		if generic := lookupAt(m.generic, tokens, i); generic != nil {
			// 通用词表与语言词表命中同一位置时取更严重的分类
			if best == nil || len(generic.words) > len(best.words) ||
				(len(generic.words) == len(best.words) && generic.category > best.category) {
				best = generic
			}
		}
		if best == nil {
			i++
			continue
		}
		matches = append(matches, models.Match{
			Term:     best.term,
			Category: best.category,
			Language: lang,
			Start:    tokens[i].start,
			End:      tokens[i+len(best.words)-1].end,
		})
		i += len(best.words)
	}

	return matches, languageKnown
}

// lookupAt 在 tokens[i] 处查找最长命中条目
func lookupAt(set termSet, tokens []token, i int) *entry {
	entries, ok := set[tokens[i].text]
	if !ok {
		return nil
	}
	for idx := range entries {
		e := &entries[idx]
		if i+len(e.words) > len(tokens) {
			continue
		}
		hit := true
		for w := 1; w < len(e.words); w++ {
			if tokens[i+w].text != e.words[w] {
				hit = false
				break
			}
		}
		if hit {
			return e
		}
	}
	return nil
}
