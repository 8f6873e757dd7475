package search

import "strings"

// miningKeywords mark text as being about mineral projects. A page must
// contain at least minKeywordHits distinct ones.
var miningKeywords = []string{
	"mine", "mining", "mineral", "deposit", "ore", "drill", "resource estimate",
	"reserve", "feasibility", "npv", "irr", "capex", "exploration", "tonnes",
	"grade", "concentrate", "open pit", "underground", "ni 43-101", "jorc",
	"pea", "aisc", "offtake",
}

// offTopicKeywords disqualify a page outright.
var offTopicKeywords = []string{
	"bitcoin", "crypto", "data mining", "text mining", "process mining",
	"minecraft", "mining pool", "hashrate",
}

const minKeywordHits = 2

// Relevant reports whether a page looks like mining project coverage.
func Relevant(title, content string) bool {
	text := " " + strings.ToLower(title+" "+content) + " "
	for _, k := range offTopicKeywords {
		if strings.Contains(text, k) {
			return false
		}
	}

	hits := 0
	for _, k := range miningKeywords {
		if containsWord(text, k) {
			hits++
			if hits >= minKeywordHits {
				return true
			}
		}
	}
	return false
}

// containsWord matches kw, or its plural, on word boundaries so "ore" does
// not match "more".
func containsWord(text, kw string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(kw)
		if end < len(text) && text[end] == 's' {
			end++
		}
		if !isWordByte(text[start-1]) && (end >= len(text) || !isWordByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
