// Package index implements term-weighted vector search over short texts.
//
// Documents are tokenized into lowercase runs of two or more word
// characters, weighted by raw term count times smoothed inverse document
// frequency, ln((1+n)/(1+df))+1, and L2-normalized. Similarity is the
// cosine of two such vectors.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vector is a sparse L2-normalized term vector keyed by vocabulary id.
type Vector map[int]float64

// Dot returns the inner product, which is the cosine for normalized vectors.
func (v Vector) Dot(o Vector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	var sum float64
	for id, w := range v {
		if ow, ok := o[id]; ok {
			sum += w * ow
		}
	}
	return sum
}

// Match is one ranked document.
type Match struct {
	Index int
	Score float64
}

// TFIDF is a fitted index over a fixed corpus.
type TFIDF struct {
	vocab map[string]int
	idf   []float64
	docs  []Vector
}

// Tokenize splits text the way the index does.
func Tokenize(text string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// Fit builds an index over texts. Document i of the index is texts[i].
func Fit(texts []string) *TFIDF {
	ix := &TFIDF{vocab: make(map[string]int)}

	tokenized := make([][]string, len(texts))
	var df []int
	for i, text := range texts {
		tokens := Tokenize(text)
		tokenized[i] = tokens
		seen := make(map[int]struct{}, len(tokens))
		for _, tok := range tokens {
			id, ok := ix.vocab[tok]
			if !ok {
				id = len(ix.vocab)
				ix.vocab[tok] = id
				df = append(df, 0)
			}
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				df[id]++
			}
		}
	}

	n := float64(len(texts))
	ix.idf = make([]float64, len(df))
	for id, d := range df {
		ix.idf[id] = math.Log((1+n)/(1+float64(d))) + 1
	}

	ix.docs = make([]Vector, len(texts))
	for i, tokens := range tokenized {
		ix.docs[i] = ix.vectorize(tokens)
	}
	return ix
}

func (ix *TFIDF) vectorize(tokens []string) Vector {
	v := make(Vector)
	for _, tok := range tokens {
		if id, ok := ix.vocab[tok]; ok {
			v[id]++
		}
	}
	var norm float64
	for id, tf := range v {
		w := tf * ix.idf[id]
		v[id] = w
		norm += w * w
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for id := range v {
		v[id] /= norm
	}
	return v
}

// Len is the number of indexed documents.
func (ix *TFIDF) Len() int {
	return len(ix.docs)
}

// Transform vectorizes a query against the fitted vocabulary. Unknown terms
// are ignored.
func (ix *TFIDF) Transform(text string) Vector {
	return ix.vectorize(Tokenize(text))
}

// Scores returns the cosine similarity of text to every document.
func (ix *TFIDF) Scores(text string) []float64 {
	q := ix.Transform(text)
	out := make([]float64, len(ix.docs))
	for i, d := range ix.docs {
		out[i] = q.Dot(d)
	}
	return out
}

// Rank returns every document sorted by descending similarity. Equal scores
// keep index order.
func (ix *TFIDF) Rank(text string) []Match {
	scores := ix.Scores(text)
	matches := make([]Match, len(scores))
	for i, s := range scores {
		matches[i] = Match{Index: i, Score: s}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// Pairwise returns the dense document-by-document cosine matrix.
func (ix *TFIDF) Pairwise() [][]float64 {
	n := len(ix.docs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := ix.docs[i].Dot(ix.docs[j])
			m[i][j], m[j][i] = s, s
		}
	}
	return m
}

// CosineMatrix fits texts and returns their pairwise similarity.
func CosineMatrix(texts []string) [][]float64 {
	return Fit(texts).Pairwise()
}
