package confidence

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "into": {}, "then": {}, "than": {}, "its": {}, "has": {}, "have": {}, "you": {},
	"your": {}, "can": {}, "will": {}, "not": {}, "but": {}, "all": {}, "any": {}, "is": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "an": {}, "be": {}, "by": {}, "or": {}, "as": {},
	"at": {}, "it": {}, "if": {}, "we": {}, "do": {},
}

var negationTerms = []string{
	"不", "没有", "无法", "并非", "不能", "未",
	" not ", " no ", " never ", "cannot", "n't",
}

// Tokens extracts comparable keywords: lower-cased latin/digit words and
// bigrams over runs of Han characters.
func Tokens(text string) []string {
	var out []string
	var word []rune
	var han []rune

	flushWord := func() {
		if len(word) >= 2 {
			w := strings.ToLower(string(word))
			if _, stop := stopwords[w]; !stop {
				out = append(out, w)
			}
		}
		word = word[:0]
	}
	flushHan := func() {
		if len(han) == 1 {
			out = append(out, string(han))
		}
		for i := 0; i+1 < len(han); i++ {
			out = append(out, string(han[i:i+2]))
		}
		han = han[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			word = append(word, r)
		default:
			flushWord()
			flushHan()
		}
	}
	flushWord()
	flushHan()
	return out
}

func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range texts {
		for _, tok := range Tokens(t) {
			set[tok] = struct{}{}
		}
	}
	return set
}

func countNegations(text string) int {
	padded := " " + strings.ToLower(text) + " "
	total := 0
	for _, term := range negationTerms {
		total += strings.Count(padded, term)
	}
	return total
}
