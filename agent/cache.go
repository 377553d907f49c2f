package agent

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"viz-agent/chart"

	lru "github.com/hashicorp/golang-lru"
)

// CachedAnalysis is the stored outcome of a successful pipeline run.
// Failures are never cached; they die with the repair loop.
type CachedAnalysis struct {
	Code    string
	Figure  *chart.Figure
	Insight string
}

// ResultCache memoizes (dataset identity, question) -> successful analysis
// for one session. It is an explicit object owned by the session, not a
// process-wide singleton; loading a new dataset purges it.
type ResultCache struct {
	entries *lru.Cache
}

func NewResultCache(size int) (*ResultCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &ResultCache{entries: entries}, nil
}

// Lookup returns the cached analysis for a fingerprint, if present.
func (c *ResultCache) Lookup(fingerprint string) (*CachedAnalysis, bool) {
	v, ok := c.entries.Get(fingerprint)
	if !ok {
		return nil, false
	}
	return v.(*CachedAnalysis), true
}

// Store records a successful analysis under a fingerprint.
func (c *ResultCache) Store(fingerprint string, entry *CachedAnalysis) {
	c.entries.Add(fingerprint, entry)
}

// Purge drops every entry. Called when the session loads a new dataset.
func (c *ResultCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached analyses.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Fingerprint returns a deterministic cache key for a dataset identity marker
// and a question.
func Fingerprint(datasetID, question string) string {
	payload := datasetID + "\x00" + NormalizeQuestion(question)
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("%x", sum[:8])
}

// NormalizeQuestion lowercases, collapses whitespace, and trims trailing
// punctuation so trivially restated questions share a cache entry.
func NormalizeQuestion(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.Join(strings.Fields(normalized), " ")
	return strings.TrimRight(normalized, "?!. ")
}
