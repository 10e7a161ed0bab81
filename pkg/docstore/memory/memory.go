// Package memory is an in-process docstore.Store used by tests, the CLI demo
// mode and local development.
package memory

import (
	"context"
	"fmt"
	"staybook/pkg/docstore"
	"strings"
	"sync"
)

type subscription struct {
	id       int
	segments []string
	path     string
	fn       func(*docstore.Snapshot)
}

type notification struct {
	fn   func(*docstore.Snapshot)
	snap *docstore.Snapshot
}

type Store struct {
	mu     sync.RWMutex
	root   any
	subs   map[int]*subscription
	nextID int
	closed bool
}

func New() *Store {
	return &Store{subs: make(map[int]*subscription)}
}

// Seed replaces the whole tree. Intended for tests and fixtures.
func (s *Store) Seed(tree map[string]any) error {
	normalized, err := docstore.Normalize(tree)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.root = normalized
	pending := s.collectLocked(nil)
	s.mu.Unlock()
	deliver(pending)
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, docstore.ErrClosed
	}
	return docstore.NewSnapshot(path, docstore.Clone(docstore.ValueAt(s.root, segments))), nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	return s.write(ctx, path, value, false)
}

func (s *Store) Create(ctx context.Context, path string, value any) error {
	return s.write(ctx, path, value, true)
}

func (s *Store) Remove(ctx context.Context, path string) error {
	return s.write(ctx, path, nil, false)
}

func (s *Store) write(ctx context.Context, path string, value any, onlyIfAbsent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segments, err := docstore.SplitForWrite(path)
	if err != nil {
		return err
	}
	normalized, err := docstore.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return docstore.ErrClosed
	}
	if onlyIfAbsent && docstore.ValueAt(s.root, segments) != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", docstore.ErrExists, path)
	}
	s.root = docstore.SetValueAt(s.root, segments, normalized)
	pending := s.collectLocked(segments)
	s.mu.Unlock()

	deliver(pending)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string, fn func(*docstore.Snapshot)) (func(), error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, docstore.ErrClosed
	}
	s.nextID++
	sub := &subscription{id: s.nextID, segments: segments, path: strings.Trim(path, "/"), fn: fn}
	s.subs[sub.id] = sub
	initial := docstore.NewSnapshot(sub.path, docstore.Clone(docstore.ValueAt(s.root, segments)))
	s.mu.Unlock()

	fn(initial)

	var once sync.Once
	stop := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
			close(stop)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return cancel, nil
}

// collectLocked snapshots every subscription affected by a write at segments.
// A nil segments slice means the whole tree changed.
func (s *Store) collectLocked(segments []string) []notification {
	var out []notification
	for _, sub := range s.subs {
		if segments != nil && !docstore.Overlaps(sub.segments, segments) {
			continue
		}
		out = append(out, notification{
			fn:   sub.fn,
			snap: docstore.NewSnapshot(sub.path, docstore.Clone(docstore.ValueAt(s.root, sub.segments))),
		})
	}
	return out
}

func deliver(pending []notification) {
	for _, n := range pending {
		n.fn(n.snap)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return docstore.ErrClosed
	}
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]*subscription)
	return nil
}
