package experiments

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/alphalab/internal/models"
)

// MemoryStore is an in-process store used in tests and for runs that opt out
// of persistence.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*Record{}}
}

// Insert stores a record, rejecting duplicate experiment ids.
func (s *MemoryStore) Insert(_ context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ExperimentID]; exists {
		return models.NewExperimentStoreError("experiment %s already exists", record.ExperimentID)
	}
	clone := *record
	s.records[record.ExperimentID] = &clone
	return nil
}

// Get retrieves a record by experiment id.
func (s *MemoryStore) Get(_ context.Context, experimentID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[experimentID]
	if !ok {
		return nil, models.NewExperimentStoreError("experiment %s not found", experimentID)
	}
	clone := *record
	return &clone, nil
}

// List returns up to limit summaries, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.records))
	for _, record := range s.records {
		summaries = append(summaries, Summary{
			ExperimentID: record.ExperimentID,
			CreatedAt:    record.CreatedAt,
			StrategyName: record.StrategyName,
			SharpeRatio:  record.Metrics["sharpe_ratio"],
			Tags:         record.Tags,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ExperimentID > summaries[j].ExperimentID
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
