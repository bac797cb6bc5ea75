package mocks

import (
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// memStore is an insertion-ordered map shared by the simple entity mocks.
type memStore[T any] struct {
	mu       sync.RWMutex
	items    map[id.ID]T
	order    []id.ID
	failNext error
}

func newMemStore[T any]() *memStore[T] {
	return &memStore[T]{items: make(map[id.ID]T)}
}

func (s *memStore[T]) create(key id.ID, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.items[key]; ok {
		return errs.ErrAlreadyExists
	}
	s.items[key] = v
	s.order = append(s.order, key)
	return nil
}

func (s *memStore[T]) get(key id.ID) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if err := s.takeFailure(); err != nil {
		return zero, err
	}
	v, ok := s.items[key]
	if !ok {
		return zero, errs.ErrNotFound
	}
	return v, nil
}

func (s *memStore[T]) put(key id.ID, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.items[key]; !ok {
		return errs.ErrNotFound
	}
	s.items[key] = v
	return nil
}

func (s *memStore[T]) remove(key id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.items[key]; !ok {
		return errs.ErrNotFound
	}
	delete(s.items, key)
	return nil
}

func (s *memStore[T]) filter(keep func(T) bool) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	result := make([]T, 0)
	for _, key := range s.order {
		if v, ok := s.items[key]; ok && keep(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (s *memStore[T]) removeWhere(match func(T) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, v := range s.items {
		if match(v) {
			delete(s.items, key)
			n++
		}
	}
	return n
}

func (s *memStore[T]) setFailureNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *memStore[T]) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}
