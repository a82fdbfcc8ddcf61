// Package topicmodel trains and applies a topic model that embeds text into a
// fixed-dimensional feature vector. Training is deterministic: the same token
// sequences and topic count always produce the same snapshot and model id.
package topicmodel

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidInput is returned by Train for an empty corpus or non-positive topic count.
var ErrInvalidInput = errors.New("topicmodel: invalid training input")

const (
	// topWordsPerTopic caps the word summary kept per topic.
	topWordsPerTopic = 10
	// trainIterations and classifyIterations bound the multiplicative update
	// loops. Both feed the model fingerprint: changing them changes the model id.
	trainIterations    = 100
	classifyIterations = 50
	updateEpsilon      = 1e-9
)

// TopicWord is one vocabulary word with its weight within a topic.
type TopicWord struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Model is a trained topic model. It factorizes term counts with non-negative
// matrix factorization; each topic is a word distribution and Classify projects
// text onto the topic space. A trained model is immutable and safe for
// concurrent Classify calls.
type Model struct {
	tokenizer Tokenizer

	modelID    string
	numTopics  int
	vocab      []string
	vocabIndex map[string]int
	topicWord  [][]float64 // numTopics rows, each a word distribution summing to 1
}

// New returns an untrained model using the given tokenizer.
// A nil tokenizer defaults to the standard Bleve chain.
func New(tokenizer Tokenizer) *Model {
	if tokenizer == nil {
		tokenizer = NewStandardTokenizer()
	}
	return &Model{tokenizer: tokenizer}
}

// Tokenizer returns the tokenizer the model classifies with.
func (m *Model) Tokenizer() Tokenizer { return m.tokenizer }

// NumTopics returns the trained topic count, 0 before training.
func (m *Model) NumTopics() int { return m.numTopics }

// ModelID returns the stable fingerprint of the training corpus and
// hyperparameters. It survives Save/Load and tags every feature vector the
// model produces, so vectors from different generations are never silently
// compared.
func (m *Model) ModelID() string { return m.modelID }

// Train fits the model on pre-tokenized documents. Identical input sequences
// and numTopics yield an identical snapshot, including identical model id and
// topic-word rankings (ties broken by token lexical order).
func (m *Model) Train(docs [][]string, numTopics int) error {
	if len(docs) == 0 || numTopics < 1 {
		return fmt.Errorf("%w: %d documents, %d topics", ErrInvalidInput, len(docs), numTopics)
	}

	vocab, vocabIndex := buildVocabulary(docs)
	if len(vocab) == 0 {
		return fmt.Errorf("%w: corpus has no tokens", ErrInvalidInput)
	}

	// Term-count matrix, one row per document.
	counts := make([][]float64, len(docs))
	for i, doc := range docs {
		row := make([]float64, len(vocab))
		for _, tok := range doc {
			row[vocabIndex[tok]]++
		}
		counts[i] = row
	}

	topicWord, docTopic := factorize(counts, numTopics)
	orderTopicsByResponsibility(topicWord, docTopic)
	for t := range topicWord {
		normalizeRow(topicWord[t])
	}

	m.modelID = fingerprint(docs, numTopics)
	m.numTopics = numTopics
	m.vocab = vocab
	m.vocabIndex = vocabIndex
	m.topicWord = topicWord
	return nil
}

// Topics returns the per-topic word summaries: for each topic the top words by
// weight, weights strictly positive and non-increasing, ties broken by lexical
// order.
func (m *Model) Topics() [][]TopicWord {
	topics := make([][]TopicWord, len(m.topicWord))
	for t, row := range m.topicWord {
		words := make([]TopicWord, 0, len(row))
		for j, w := range row {
			if w > 0 {
				words = append(words, TopicWord{Word: m.vocab[j], Weight: w})
			}
		}
		sort.Slice(words, func(a, b int) bool {
			if words[a].Weight != words[b].Weight {
				return words[a].Weight > words[b].Weight
			}
			return words[a].Word < words[b].Word
		})
		if len(words) > topWordsPerTopic {
			words = words[:topWordsPerTopic]
		}
		topics[t] = words
	}
	return topics
}

// Classify tokenizes text and projects it onto the trained topic space.
// Returns ok=false when the text shares no vocabulary with the training corpus
// or the projection degenerates numerically; the vector must not be used in
// that case. Classify never panics on malformed or empty input.
func (m *Model) Classify(text string) (bool, []float64) {
	if m.numTopics == 0 {
		return false, nil
	}
	counts := make([]float64, len(m.vocab))
	known := 0
	for _, tok := range m.tokenizer.Tokenize(text) {
		if j, ok := m.vocabIndex[tok]; ok {
			counts[j]++
			known++
		}
	}
	if known == 0 {
		return false, nil
	}

	// Project: solve the document-topic mixture against the fixed topic-word
	// matrix with multiplicative updates from a uniform start. No randomness,
	// so classification is reproducible across runs and across Save/Load.
	h := make([]float64, m.numTopics)
	for t := range h {
		h[t] = 1.0 / float64(m.numTopics)
	}
	recon := make([]float64, len(m.vocab))
	for iter := 0; iter < classifyIterations; iter++ {
		for j := range recon {
			var v float64
			for t := range h {
				v += h[t] * m.topicWord[t][j]
			}
			recon[j] = v
		}
		for t := range h {
			var num, den float64
			for j, c := range counts {
				if c == 0 && recon[j] == 0 {
					continue
				}
				num += c * m.topicWord[t][j]
				den += recon[j] * m.topicWord[t][j]
			}
			h[t] *= num / (den + updateEpsilon)
		}
	}

	var sum float64
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false, nil
		}
		sum += v
	}
	if sum == 0 {
		return false, nil
	}
	for t := range h {
		h[t] /= sum
	}
	return true, h
}

// buildVocabulary returns the sorted unique tokens of the corpus and their
// index mapping. Lexical ordering keeps the vocabulary layout deterministic.
func buildVocabulary(docs [][]string) ([]string, map[string]int) {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, tok := range doc {
			seen[tok] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for j, tok := range vocab {
		index[tok] = j
	}
	return vocab, index
}

// factorize runs non-negative matrix factorization on the term-count matrix:
// counts ≈ docTopic · topicWord. Topic rows are seeded from the documents
// themselves (plus a small index-dependent offset to break symmetry), so the
// factorization is fully deterministic without a random source.
func factorize(counts [][]float64, numTopics int) (topicWord, docTopic [][]float64) {
	nDocs := len(counts)
	nWords := len(counts[0])

	topicWord = make([][]float64, numTopics)
	for t := 0; t < numTopics; t++ {
		row := make([]float64, nWords)
		seed := counts[t%nDocs]
		for j := 0; j < nWords; j++ {
			row[j] = seed[j] + 0.01 + 0.001*float64((t*31+j)%7)
		}
		topicWord[t] = row
	}
	docTopic = make([][]float64, nDocs)
	for i := range docTopic {
		row := make([]float64, numTopics)
		for t := range row {
			row[t] = 1.0
		}
		docTopic[i] = row
	}

	recon := make([][]float64, nDocs)
	for i := range recon {
		recon[i] = make([]float64, nWords)
	}
	for iter := 0; iter < trainIterations; iter++ {
		reconstruct(recon, docTopic, topicWord)

		// docTopic *= (counts · topicWordᵀ) / (recon · topicWordᵀ)
		for i := 0; i < nDocs; i++ {
			for t := 0; t < numTopics; t++ {
				var num, den float64
				for j := 0; j < nWords; j++ {
					num += counts[i][j] * topicWord[t][j]
					den += recon[i][j] * topicWord[t][j]
				}
				docTopic[i][t] *= num / (den + updateEpsilon)
			}
		}
		reconstruct(recon, docTopic, topicWord)

		// topicWord *= (docTopicᵀ · counts) / (docTopicᵀ · recon)
		for t := 0; t < numTopics; t++ {
			for j := 0; j < nWords; j++ {
				var num, den float64
				for i := 0; i < nDocs; i++ {
					num += docTopic[i][t] * counts[i][j]
					den += docTopic[i][t] * recon[i][j]
				}
				topicWord[t][j] *= num / (den + updateEpsilon)
			}
		}
	}
	return topicWord, docTopic
}

func reconstruct(recon, docTopic, topicWord [][]float64) {
	for i := range recon {
		for j := range recon[i] {
			var v float64
			for t := range topicWord {
				v += docTopic[i][t] * topicWord[t][j]
			}
			recon[i][j] = v
		}
	}
}

// orderTopicsByResponsibility sorts topics by total document responsibility,
// descending, so the most explanatory latent dimensions come first. Ties keep
// training order.
func orderTopicsByResponsibility(topicWord, docTopic [][]float64) {
	type ranked struct {
		index          int
		responsibility float64
	}
	ranks := make([]ranked, len(topicWord))
	for t := range topicWord {
		var r float64
		for i := range docTopic {
			r += docTopic[i][t]
		}
		ranks[t] = ranked{index: t, responsibility: r}
	}
	sort.SliceStable(ranks, func(a, b int) bool {
		return ranks[a].responsibility > ranks[b].responsibility
	})
	reordered := make([][]float64, len(topicWord))
	for pos, r := range ranks {
		reordered[pos] = topicWord[r.index]
	}
	copy(topicWord, reordered)
}

func normalizeRow(row []float64) {
	var sum float64
	for _, v := range row {
		sum += v
	}
	if sum == 0 {
		return
	}
	for j := range row {
		row[j] /= sum
	}
}

// fingerprint hashes the training inputs: every token of every document in
// order, the topic count, and the iteration counts. Any change to the
// vocabulary, document set, topic count, or iteration-affecting options yields
// a different id.
func fingerprint(docs [][]string, numTopics int) string {
	h := sha256.New()
	h.Write([]byte("gator/topicmodel/v1\n"))
	var nums [8]byte
	binary.LittleEndian.PutUint64(nums[:], uint64(numTopics))
	h.Write(nums[:])
	binary.LittleEndian.PutUint64(nums[:], uint64(trainIterations))
	h.Write(nums[:])
	binary.LittleEndian.PutUint64(nums[:], uint64(classifyIterations))
	h.Write(nums[:])
	for _, doc := range docs {
		for _, tok := range doc {
			h.Write([]byte(tok))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
