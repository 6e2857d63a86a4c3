package dedup

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// comparisonStopwords are dropped before scoring: articles and
// prepositions carry no identity, and generic event nouns plus the city
// name would otherwise inflate every pairwise score. Entries are listed
// in their accent-stripped form because filtering runs after NFKD.
var comparisonStopwords = map[string]bool{
	"le": true, "la": true, "les": true, "de": true, "du": true, "des": true,
	"un": true, "une": true, "the": true, "a": true, "an": true,
	"et": true, "and": true, "au": true, "aux": true, "en": true,
	"dans": true, "sur": true, "par": true, "pour": true,
	"concert": true, "spectacle": true, "exposition": true, "atelier": true,
	"soiree": true, "paris": true, "france": true,
}

// normalizeCompare prepares text for similarity scoring: NFKD decompose,
// strip combining marks, lowercase, drop stopwords, strip punctuation,
// collapse whitespace. Stopword filtering runs on whole whitespace tokens
// before punctuation removal, so "l'avare" keeps its article glued on.
func normalizeCompare(s string) string {
	if s == "" {
		return ""
	}

	var stripped strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		stripped.WriteRune(r)
	}

	words := strings.Fields(strings.ToLower(stripped.String()))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !comparisonStopwords[w] {
			kept = append(kept, w)
		}
	}

	var clean strings.Builder
	for _, r := range strings.Join(kept, " ") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			clean.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(clean.String()), " ")
}

// blendedSimilarity scores two raw strings 0..100 by normalizing both and
// combining four measures: plain ratio (20%), partial-window ratio (30%),
// token-sort ratio (20%) and token-set ratio (30%). The order-insensitive
// half keeps reworded titles ("Jazz au Sunset" vs "Sunset: jazz") close.
// Either side normalizing to nothing scores 0.
func blendedSimilarity(a, b string) float64 {
	na, nb := normalizeCompare(a), normalizeCompare(b)
	if na == "" || nb == "" {
		return 0
	}
	return 0.2*ratio(na, nb) +
		0.3*partialRatio(na, nb) +
		0.2*tokenSortRatio(na, nb) +
		0.3*tokenSetRatio(na, nb)
}

// ratio is the longest-common-subsequence similarity scaled to 0..100:
// 200*lcs/(len1+len2) over runes.
func ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return 200 * float64(lcs) / float64(len(a)+len(b))
}

// partialRatio slides the shorter string over every same-length window of
// the longer one and keeps the best ratio, so a title embedded in a
// longer variant still scores high.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return ratioRunes(ra, rb)
	}
	shorter, longer := ra, rb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		r := ratioRunes(shorter, longer[i:i+len(shorter)])
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// tokenSortRatio compares the two strings with their tokens sorted, which
// cancels word-order differences.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

// tokenSetRatio compares the sorted token intersection against each
// side's intersection-plus-remainder. When one title's tokens are a
// subset of the other's the intersection equals one of the sides and the
// score reaches 100.
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var inter, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := ratio(t0, t1)
	if r := ratio(t0, t2); r > best {
		best = r
	}
	if r := ratio(t1, t2); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// lcsLength computes the longest common subsequence length with a
// two-row rolling table.
func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
