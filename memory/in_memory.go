package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/overturehq/overture/core"
)

// Store is the long-term memory consumed by the orchestrator. Both
// operations are advisory: retrieval failures degrade to planning without
// context, and store failures never fail the cycle that produced the data.
type Store interface {
	// RetrieveRelevantContext returns prior knowledge related to the
	// request, or nil when nothing relevant is known.
	RetrieveRelevantContext(ctx context.Context, request string) (any, error)
	// StoreExecution records a completed orchestration cycle.
	StoreExecution(ctx context.Context, request string, plan core.Plan, result core.ExecutionResult, reflection core.Reflection) error
}

// Record is one stored orchestration cycle.
type Record struct {
	ID         string
	Request    string
	Plan       core.Plan
	Result     core.ExecutionResult
	Reflection core.Reflection
	StoredAt   time.Time
}

// InMemoryStore is a process-local Store. Retrieval is a linear scan with
// case-insensitive substring matching against stored requests. Concurrency
// is protected by RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	limit   int
}

// DefaultRetrievalLimit caps how many prior cycles a retrieval returns.
const DefaultRetrievalLimit = 5

// NewInMemoryStore creates an empty in-memory execution store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{limit: DefaultRetrievalLimit}
}

// RetrieveRelevantContext scans stored cycles for requests sharing words
// with the incoming one, most recent first. Returns nil when nothing
// matches so callers can treat "no memory" and "no match" alike.
func (s *InMemoryStore) RetrieveRelevantContext(_ context.Context, request string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(request))
	if needle == "" {
		return nil, nil
	}

	matches := make([]Record, 0, s.limit)
	for i := len(s.records) - 1; i >= 0 && len(matches) < s.limit; i-- {
		if relevant(strings.ToLower(s.records[i].Request), needle) {
			matches = append(matches, s.records[i])
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	summaries := make([]map[string]any, len(matches))
	for i, rec := range matches {
		summaries[i] = map[string]any{
			"request":  rec.Request,
			"goal":     rec.Plan.Goal,
			"success":  rec.Reflection.Success,
			"insights": rec.Reflection.Insights,
		}
	}
	return summaries, nil
}

// relevant reports whether two requests share at least one word, or one
// contains the other outright.
func relevant(haystack, needle string) bool {
	if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
		return true
	}
	for _, word := range strings.Fields(needle) {
		if len(word) >= 4 && strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}

// StoreExecution appends a completed cycle.
func (s *InMemoryStore) StoreExecution(_ context.Context, request string, plan core.Plan, result core.ExecutionResult, reflection core.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, Record{
		ID:         core.NewID(),
		Request:    request,
		Plan:       plan,
		Result:     result,
		Reflection: reflection,
		StoredAt:   time.Now(),
	})
	return nil
}

// Len returns the number of stored cycles.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
