package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPSourceConfig configures the HTTP fetch stage.
type HTTPSourceConfig struct {
	SeedURLs  []string
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// HTTPSource fetches seed URLs over HTTP with rate limiting and emits one raw
// document per page. Fetch or parse failures skip the page; they never stop
// the stream.
type HTTPSource struct {
	config  HTTPSourceConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithLogger sets a logger for per-page fetch events.
func WithLogger(l *zap.Logger) HTTPSourceOption {
	return func(s *HTTPSource) { s.logger = l }
}

// NewHTTPSource creates an HTTP source with the given configuration.
func NewHTTPSource(config HTTPSourceConfig, opts ...HTTPSourceOption) *HTTPSource {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	s := &HTTPSource{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch streams one RawDocument per reachable seed URL. The channel is
// unbuffered: the consumer's pace is the crawl's pace.
func (s *HTTPSource) Fetch(ctx context.Context) <-chan RawDocument {
	out := make(chan RawDocument)
	go func() {
		defer close(out)
		for _, url := range s.config.SeedURLs {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			doc, err := s.fetchOne(ctx, url)
			if err != nil {
				if s.logger != nil {
					s.logger.Debug("crawler fetch skipped", zap.String("url", url), zap.Error(err))
				}
				continue
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *HTTPSource) fetchOne(ctx context.Context, url string) (RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RawDocument{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return RawDocument{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RawDocument{}, fmt.Errorf("fetch: status %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawDocument{}, fmt.Errorf("read body: %w", err)
	}
	html := string(body)
	return RawDocument{URL: url, Title: extractTitle(html), HTML: html}, nil
}

// extractTitle returns the page's <title> text, empty when absent or unparseable.
func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ExtractText returns the visible text of an HTML page with scripts and
// styles removed and whitespace collapsed. Input that does not parse as HTML
// is returned cleaned as-is.
func ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
