package store

import (
	"context"
	"sync"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgerror"
)

const DefaultRunRetention = 256

// InMemoryRunStore tracks submitted runs. Once more than retention runs are
// known, the oldest ones are forgotten.
type InMemoryRunStore struct {
	mu        sync.RWMutex
	runs      map[string]*runRecord
	order     []string
	retention int
}

type runRecord struct {
	mu   sync.RWMutex
	meta entity.RunMeta
}

func NewInMemoryRunStore(retention int) *InMemoryRunStore {
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	return &InMemoryRunStore{
		runs:      make(map[string]*runRecord),
		retention: retention,
	}
}

func (s *InMemoryRunStore) CreateRun(ctx context.Context, meta entity.RunMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[meta.ID]; exists {
		return pkgerror.NewBusiness("run already exists", pkgerror.CodeConflict)
	}

	s.runs[meta.ID] = &runRecord{meta: meta}
	s.order = append(s.order, meta.ID)

	for len(s.order) > s.retention {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}

	return nil
}

func (s *InMemoryRunStore) UpdateRun(ctx context.Context, runID string, fn func(meta *entity.RunMeta)) error {
	rec, err := s.get(runID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	fn(&rec.meta)

	return nil
}

func (s *InMemoryRunStore) GetRun(ctx context.Context, runID string) (entity.RunMeta, error) {
	rec, err := s.get(runID)
	if err != nil {
		return entity.RunMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.meta, nil
}

func (s *InMemoryRunStore) get(runID string) (*runRecord, error) {
	s.mu.RLock()
	rec, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
