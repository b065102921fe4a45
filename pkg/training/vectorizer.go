// pkg/training/vectorizer.go
package training

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
)

// Stop word list names accepted by the vectorizer
const (
	StopWordsNone    = "none"
	StopWordsEnglish = "english"
	StopWordsSpanish = "spanish"
)

var stopWordLists = map[string][]string{
	StopWordsEnglish: {
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "in",
		"is", "it", "of", "on", "or", "that", "the", "to", "was", "with",
	},
	StopWordsSpanish: {
		"al", "de", "del", "el", "en", "la", "las", "lo", "los", "por", "un",
		"una", "y",
	},
}

// minFuzzyLength keeps short tokens from matching unrelated terms
const minFuzzyLength = 4

// SparseVector holds the non-zero entries of a document vector, sorted by index
type SparseVector struct {
	Indices []int32
	Values  []float64
}

// Dot returns the inner product of two sparse vectors
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Vectorizer maps text to L2-normalized TF-IDF vectors. Tokens are folded
// to lowercase without diacritics; tokens shorter than two runes are
// ignored. Unknown tokens can be matched to a vocabulary term within
// FuzzyDistance edits.
type Vectorizer struct {
	MaxFeatures   int
	StopWords     string
	FuzzyDistance int
	Vocabulary    map[string]int32
	Terms         []string
	IDF           []float64

	stop map[string]struct{}
}

// NewVectorizer creates an unfitted vectorizer
func NewVectorizer(maxFeatures int, stopWords string, fuzzyDistance int) (*Vectorizer, error) {
	v := &Vectorizer{
		MaxFeatures:   maxFeatures,
		StopWords:     strings.ToLower(strings.TrimSpace(stopWords)),
		FuzzyDistance: fuzzyDistance,
	}
	if v.StopWords == "" {
		v.StopWords = StopWordsNone
	}
	if err := v.init(); err != nil {
		return nil, err
	}
	return v, nil
}

// init rebuilds derived state, also after gob decoding
func (v *Vectorizer) init() error {
	v.stop = make(map[string]struct{})
	if v.StopWords == StopWordsNone {
		return nil
	}
	words, ok := stopWordLists[v.StopWords]
	if !ok {
		return fmt.Errorf("unknown stop word list %q", v.StopWords)
	}
	for _, w := range words {
		v.stop[w] = struct{}{}
	}
	return nil
}

// Tokenize splits folded text into word tokens, dropping stop words
func (v *Vectorizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(cleaner.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, ok := v.stop[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Fit learns the vocabulary and smoothed inverse document frequencies:
// idf = ln((1+n)/(1+df)) + 1. With more distinct terms than MaxFeatures,
// the most frequent terms are kept.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("cannot fit vectorizer on an empty corpus")
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range v.Tokenize(doc) {
			termFreq[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}
	if len(termFreq) == 0 {
		return fmt.Errorf("corpus has no usable tokens")
	}

	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Terms = terms
	v.Vocabulary = make(map[string]int32, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, t := range terms {
		v.Vocabulary[t] = int32(i)
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return nil
}

// lookup resolves a token to a vocabulary index, trying the closest term
// within FuzzyDistance edits when there is no exact match
func (v *Vectorizer) lookup(tok string) (int32, bool) {
	if idx, ok := v.Vocabulary[tok]; ok {
		return idx, true
	}
	if v.FuzzyDistance <= 0 || utf8.RuneCountInString(tok) < minFuzzyLength {
		return 0, false
	}

	best, bestDist := int32(-1), v.FuzzyDistance+1
	for i, term := range v.Terms {
		if abs(utf8.RuneCountInString(term)-utf8.RuneCountInString(tok)) > v.FuzzyDistance {
			continue
		}
		if d := levenshtein.ComputeDistance(tok, term); d < bestDist {
			best, bestDist = int32(i), d
		}
	}
	return best, best >= 0
}

// Transform vectorizes one document
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int32]float64)
	for _, tok := range v.Tokenize(doc) {
		if idx, ok := v.lookup(tok); ok {
			counts[idx]++
		}
	}

	vec := SparseVector{
		Indices: make([]int32, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Slice(vec.Indices, func(i, j int) bool { return vec.Indices[i] < vec.Indices[j] })

	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.IDF[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
