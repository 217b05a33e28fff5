// Package usage accumulates token usage reported by the upstream API.
package usage

import "sync"

// TokenCount holds the usage reported for a single upstream call.
type TokenCount struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64 // Credits charged, when the API reports it.
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Tracker accumulates token usage across upstream calls, overall and per
// model. It is safe for concurrent use; the zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	count   int
	total   TokenCount
	byModel map[string]TokenCount
}

// Add records a token count entry.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	t.total = sum(t.total, tc)

	if t.byModel == nil {
		t.byModel = make(map[string]TokenCount)
	}
	m := sum(t.byModel[tc.Model], tc)
	m.Model = tc.Model
	t.byModel[tc.Model] = m
}

// Total returns the aggregate token count across all entries. The Model
// field of the result is empty.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// ByModel returns a snapshot of the aggregate usage per model.
func (t *Tracker) ByModel() map[string]TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TokenCount, len(t.byModel))
	for k, v := range t.byModel {
		out[k] = v
	}

	return out
}

// Count returns the number of recorded entries.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Reset clears all recorded entries.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count = 0
	t.total = TokenCount{}
	t.byModel = nil
}

func sum(a, b TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  a.InputTokens + b.InputTokens,
		OutputTokens: a.OutputTokens + b.OutputTokens,
		Cost:         a.Cost + b.Cost,
	}
}
