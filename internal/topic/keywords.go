package topic

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// classKeywords ranks the words of each topic with a class-based TF-IDF:
// every topic is treated as one large document, and a word scores
// tf(word, topic) * log(1 + avgWordsPerTopic / tf(word, all topics)).
func classKeywords(docs []string, members map[int][]int) map[int][]string {
	tf := make(map[int]map[string]int, len(members))
	total := make(map[string]int)
	words := 0
	for t, idxs := range members {
		counts := make(map[string]int)
		for _, i := range idxs {
			for _, w := range tokenize(docs[i]) {
				counts[w]++
				total[w]++
				words++
			}
		}
		tf[t] = counts
	}

	out := make(map[int][]string, len(tf))
	if words == 0 {
		return out
	}
	avg := float64(words) / float64(len(members))

	type scored struct {
		word  string
		score float64
	}
	for t, counts := range tf {
		ranked := make([]scored, 0, len(counts))
		for w, n := range counts {
			ranked = append(ranked, scored{w, float64(n) * math.Log(1+avg/float64(total[w]))})
		}
		sort.Slice(ranked, func(a, b int) bool {
			if ranked[a].score != ranked[b].score {
				return ranked[a].score > ranked[b].score
			}
			return ranked[a].word < ranked[b].word
		})

		kw := make([]string, 0, min(maxKeywords, len(ranked)))
		for _, s := range ranked[:min(maxKeywords, len(ranked))] {
			kw = append(kw, s.word)
		}
		out[t] = kw
	}
	return out
}

func tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if utf8.RuneCountInString(f) < 2 || isNumber(f) || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var stopWords = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(`
		a about above after again against all also am an and any are as at be because been
		before being below between both but by can could did do does doing down during each
		few for from further had has have having he her here hers herself him himself his how
		if in into is it its itself just me more most my myself no nor not now of off on once
		only or other our ours ourselves out over own same she should so some such than that
		the their theirs them themselves then there these they this those through to too under
		until up very was we were what when where which while who whom why will with would you
		your yours yourself yourselves via using use used based etc`) {
		m[w] = true
	}
	return m
}()
