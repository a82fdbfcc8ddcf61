package topicmodel

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Tokenizer turns raw text into a token sequence. The topic model depends only
// on this capability, so tests can substitute a trivial implementation.
type Tokenizer interface {
	Tokenize(text string) []string
}

// StandardTokenizer tokenizes with the Bleve analysis chain: unicode word
// segmentation, lowercasing, English stopword removal. No stemming, so tokens
// stay readable in topic summaries.
type StandardTokenizer struct {
	tokenizer  analysis.Tokenizer
	lowercase  analysis.TokenFilter
	stopFilter analysis.TokenFilter
}

// NewStandardTokenizer builds the default tokenizer.
func NewStandardTokenizer() *StandardTokenizer {
	stopMap := analysis.NewTokenMap()
	// LoadBytes cannot fail on the embedded stopword list.
	_ = stopMap.LoadBytes(en.EnglishStopWords)
	return &StandardTokenizer{
		tokenizer:  unicode.NewUnicodeTokenizer(),
		lowercase:  lowercase.NewLowerCaseFilter(),
		stopFilter: stop.NewStopTokensFilter(stopMap),
	}
}

// Tokenize returns the token terms for text, in order.
func (t *StandardTokenizer) Tokenize(text string) []string {
	stream := t.tokenizer.Tokenize([]byte(text))
	stream = t.lowercase.Filter(stream)
	stream = t.stopFilter.Filter(stream)
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}

// HTMLTokenizer strips markup before tokenizing, so crawled pages and plain
// text classify the same way.
type HTMLTokenizer struct {
	inner Tokenizer
}

// NewHTMLTokenizer wraps the standard tokenizer with HTML text extraction.
func NewHTMLTokenizer() *HTMLTokenizer {
	return &HTMLTokenizer{inner: NewStandardTokenizer()}
}

// Tokenize extracts visible text from html and tokenizes it. Input that does
// not parse as HTML is tokenized as-is; goquery treats plain text as a body
// fragment, so this degrades gracefully.
func (t *HTMLTokenizer) Tokenize(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return t.inner.Tokenize(html)
	}
	doc.Find("script, style, noscript").Remove()
	return t.inner.Tokenize(doc.Text())
}
