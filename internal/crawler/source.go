// Package crawler provides the document fetch stage: a thin, swappable
// collaborator that streams raw web documents into the pipeline.
package crawler

import "context"

// RawDocument is one crawled page before classification.
type RawDocument struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Source streams raw documents. The channel is closed when the source is
// exhausted or ctx is cancelled; consumers read it as a backpressured stream
// and never materialize it fully. The sequence may contain duplicate URLs.
type Source interface {
	Fetch(ctx context.Context) <-chan RawDocument
}
