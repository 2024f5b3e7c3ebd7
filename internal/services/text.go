package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceEnd = regexp.MustCompile(`[^.!?।]+[.!?।]+["')\]]*|[^.!?।]+$`)

// SplitSentences splits text on terminal punctuation.
func SplitSentences(text string) []string {
	var out []string
	for _, m := range sentenceEnd.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// ExtractiveSummary picks the n highest scoring sentences, keeps them in their
// original order and renders them as bullets. Sentences score by the
// normalized frequency of their non stop-words divided by their length.
func ExtractiveSummary(text string, n int) string {
	sentences := SplitSentences(text)
	if len(sentences) <= n {
		return strings.Join(sentences, "\n\n")
	}

	freq := map[string]float64{}
	maxFreq := 0.0
	for _, s := range sentences {
		for _, w := range words(s) {
			if _, stop := stopWords[w]; stop {
				continue
			}
			freq[w]++
			maxFreq = max(maxFreq, freq[w])
		}
	}
	if maxFreq == 0 {
		maxFreq = 1
	}

	scores := make([]float64, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		for _, w := range ws {
			scores[i] += freq[w] / maxFreq
		}
		scores[i] /= float64(max(1, len(ws)))
	}

	idx := make([]int, len(sentences))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	top := idx[:n]
	sort.Ints(top)

	bullets := make([]string, 0, n)
	for _, i := range top {
		bullets = append(bullets, "• "+sentences[i])
	}
	return strings.Join(bullets, "\n\n")
}

// keyPointsMaxLen is the length, in characters, a condensed transcript may keep.
const keyPointsMaxLen = 10000

// sectionMarkers are tried in order: headings, then bracketed, parenthesised
// and dashed timestamps.
var sectionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?:Section|Chapter|Part|Topic|Module)\s*\d+:`),
	regexp.MustCompile(`\[\d+:\d+\]`),
	regexp.MustCompile(`\(\d+:\d+\)`),
	regexp.MustCompile(`\d+:\d+\s*-`),
}

// KeyPoints condenses a transcript without a model. Text within
// keyPointsMaxLen is returned unchanged. Longer text split into more than
// three sections by headings or timestamps keeps its first, middle and last
// section; otherwise the n best sentences are extracted.
func KeyPoints(text string, n int) string {
	if utf8.RuneCountInString(text) <= keyPointsMaxLen {
		return text
	}
	for _, re := range sectionMarkers {
		secs := splitAtMarkers(text, re)
		if len(secs) <= 3 {
			continue
		}
		combined := strings.Join([]string{secs[0], secs[len(secs)/2], secs[len(secs)-1]}, "\n\n")
		if utf8.RuneCountInString(combined) <= keyPointsMaxLen {
			return combined
		}
	}
	return ExtractiveSummary(text, n)
}

// splitAtMarkers cuts text into sections that each start at a marker and run
// up to the next one. Text before the first marker is dropped.
func splitAtMarkers(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	secs := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		secs = append(secs, strings.TrimSpace(text[loc[0]:end]))
	}
	return secs
}

// PreviewWords returns the first n words of text.
func PreviewWords(text string, n int) string {
	fs := strings.Fields(text)
	if len(fs) > n {
		fs = fs[:n]
	}
	return strings.Join(fs, " ")
}

var stopWords = func() map[string]struct{} {
	list := strings.Fields(`a about above after again against all am an and any are aren't as at be because
been before being below between both but by can can't cannot could couldn't did didn't do does doesn't
doing don't down during each few for from further had hadn't has hasn't have haven't having he he'd
he'll he's her here here's hers herself him himself his how how's i i'd i'll i'm i've if in into is
isn't it it's its itself let's me more most mustn't my myself no nor not of off on once only or other
ought our ours ourselves out over own same shan't she she'd she'll she's should shouldn't so some such
than that that's the their theirs them themselves then there there's these they they'd they'll they're
they've this those through to too under until up very was wasn't we we'd we'll we're we've were weren't
what what's when when's where where's which while who who's whom why why's will with won't would
wouldn't you you'd you'll you're you've your yours yourself yourselves just now also s t`)
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
