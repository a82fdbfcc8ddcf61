package topicmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotFile is the artifact name inside the model directory.
const snapshotFile = "model.json"

// snapshot is the persisted form of a trained model. Weights round-trip
// through JSON without loss, so classification after Load matches
// classification before Save.
type snapshot struct {
	ModelID   string      `json:"model_id"`
	NumTopics int         `json:"num_topics"`
	Vocab     []string    `json:"vocabulary"`
	TopicWord [][]float64 `json:"topic_word"`
}

// Save writes the trained model snapshot into dir, creating it if needed.
func (m *Model) Save(dir string) error {
	if m.numTopics == 0 {
		return fmt.Errorf("topicmodel: cannot save untrained model")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.Marshal(snapshot{
		ModelID:   m.modelID,
		NumTopics: m.numTopics,
		Vocab:     m.vocab,
		TopicWord: m.topicWord,
	})
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), data, 0600); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model snapshot from dir, replacing any trained state.
// An unreadable or inconsistent snapshot is an error; the caller treats it as
// fatal at startup.
func (m *Model) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	if snap.NumTopics < 1 || len(snap.TopicWord) != snap.NumTopics || snap.ModelID == "" {
		return fmt.Errorf("model snapshot is inconsistent: %d topics, %d rows", snap.NumTopics, len(snap.TopicWord))
	}
	for t, row := range snap.TopicWord {
		if len(row) != len(snap.Vocab) {
			return fmt.Errorf("model snapshot is inconsistent: topic %d has %d weights for %d words", t, len(row), len(snap.Vocab))
		}
	}
	index := make(map[string]int, len(snap.Vocab))
	for j, tok := range snap.Vocab {
		index[tok] = j
	}
	m.modelID = snap.ModelID
	m.numTopics = snap.NumTopics
	m.vocab = snap.Vocab
	m.vocabIndex = index
	m.topicWord = snap.TopicWord
	return nil
}
