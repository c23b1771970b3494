package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/krump3t/astra-graphrag/vectorstore"
)

var tokenPattern = regexp.MustCompile(`\w+`)

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[t] = struct{}{}
	}
	return tokens
}

func keywordOverlap(queryTokens map[string]struct{}, docText string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	docTokens := tokenize(docText)
	hits := 0
	for t := range queryTokens {
		if _, ok := docTokens[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

type scoredDocument struct {
	doc   vectorstore.Document
	score float64
	index int
}

// rerank implements stage 4.3.3: blend vector rank with lexical overlap and
// return the top_k documents, stable on score ties.
func rerank(query string, docs []vectorstore.Document, topK int, relationshipConfidence float64) []vectorstore.Document {
	if len(docs) == 0 {
		return docs
	}

	wv, wk := 0.7, 0.3
	if relationshipConfidence >= 0.85 {
		wv, wk = 0.6, 0.4
	}

	queryTokens := tokenize(query)
	n := len(docs)

	scored := make([]scoredDocument, n)
	for i, d := range docs {
		vectorRankScore := 1 - float64(i)/float64(n)
		overlap := keywordOverlap(queryTokens, d.Text)
		scored[i] = scoredDocument{doc: d, score: wv*vectorRankScore + wk*overlap, index: i}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topK > len(scored) {
		topK = len(scored)
	}

	out := make([]vectorstore.Document, topK)
	for i := 0; i < topK; i++ {
		out[i] = scored[i].doc
	}
	return out
}
