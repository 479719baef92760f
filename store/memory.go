package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/seiflotfy/genpress/descriptor"
)

type memoryRecord struct {
	entry   Entry
	payload []byte
	seq     int
}

// MemoryStore keeps encoded envelopes in memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	records     map[string]memoryRecord
	seq         int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.records = make(map[string]memoryRecord)
	return nil
}

func (s *MemoryStore) Put(_ context.Context, env *descriptor.Envelope) (string, error) {
	payload, err := encodeEnvelope(env)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return "", errors.New("store is not initialized")
	}

	id := uuid.NewString()
	s.seq++
	s.records[id] = memoryRecord{
		entry: Entry{
			ID:     id,
			Origin: env.Origin,
			Length: env.Length,
			Kind:   env.Descriptor.Kind,
			Bytes:  len(payload),
		},
		payload: payload,
		seq:     s.seq,
	}
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*descriptor.Envelope, bool, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	env, err := decodeEnvelope(id, rec.payload)
	if err != nil {
		return nil, false, err
	}
	return env, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// List returns entries in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]memoryRecord, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]Entry, len(recs))
	for i, r := range recs {
		out[i] = r.entry
	}
	return out, nil
}
