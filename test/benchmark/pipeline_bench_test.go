package benchmark

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gator-life/gator/internal/models"
	"github.com/gator-life/gator/internal/retention"
	"github.com/gator-life/gator/internal/topicmodel"
	"github.com/gator-life/gator/pkg/utils"
)

func benchModel(b *testing.B) *topicmodel.Model {
	b.Helper()
	model := topicmodel.New(nil)
	docs := make([][]string, 50)
	for i := range docs {
		tokens := make([]string, 0, 40)
		for j := 0; j < 40; j++ {
			tokens = append(tokens, fmt.Sprintf("word%d", (i*7+j*3)%200))
		}
		docs[i] = tokens
	}
	if err := model.Train(docs, 16); err != nil {
		b.Fatal(err)
	}
	return model
}

func BenchmarkClassify(b *testing.B) {
	model := benchModel(b)
	text := "word1 word4 word9 word16 word25 word36 word49 word64 word81 word100"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = model.Classify(text)
	}
}

func BenchmarkTokenize(b *testing.B) {
	tok := topicmodel.NewStandardTokenizer()
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tok.Tokenize(text)
	}
}

func BenchmarkCosine(b *testing.B) {
	x := make([]float64, 128)
	y := make([]float64, 128)
	for i := range x {
		x[i] = float64(i) / 128
		y[i] = float64(128-i) / 128
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = utils.Cosine(x, y)
	}
}

func BenchmarkRetentionApply(b *testing.B) {
	now := time.Now().UTC()
	existing := make([]*models.UserDocument, 100)
	for i := range existing {
		existing[i] = &models.UserDocument{
			Document:   &models.Document{URLHash: fmt.Sprintf("existing-%d", i)},
			Grade:      float64(i) / 100,
			InsertedAt: now,
		}
	}
	incoming := make([]*models.UserDocument, 30)
	for i := range incoming {
		incoming[i] = &models.UserDocument{
			Document:   &models.Document{URLHash: fmt.Sprintf("incoming-%d", i)},
			Grade:      float64(i) / 30,
			InsertedAt: now,
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = retention.Apply(existing, incoming, 100)
	}
}
