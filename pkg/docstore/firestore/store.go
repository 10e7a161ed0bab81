// Package firestore maps the document tree onto Cloud Firestore: the first path
// segment names a collection, the second a document, and any further segments a
// field path inside that document.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"staybook/pkg/docstore"
	"staybook/pkg/logger"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Config struct {
	ProjectID       string
	CredentialsFile string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

type Store struct {
	cfg    Config
	client *firestore.Client
	log    *logger.Logger
}

func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return New(client, cfg, log), nil
}

func New(client *firestore.Client, cfg Config, log *logger.Logger) *Store {
	return &Store{cfg: cfg, client: client, log: log}
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var value any
	switch len(segments) {
	case 0:
		value, err = s.readRoot(ctx)
	case 1:
		value, err = s.readCollection(ctx, segments[0])
	default:
		var snap *firestore.DocumentSnapshot
		snap, err = s.client.Collection(segments[0]).Doc(segments[1]).Get(ctx)
		if isNotFound(err) {
			return docstore.NewSnapshot(path, nil), nil
		}
		if err == nil {
			value = valueAt(snap, segments[2:])
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	normalized, err := docstore.Normalize(value)
	if err != nil {
		return nil, err
	}
	return docstore.NewSnapshot(path, normalized), nil
}

func (s *Store) readRoot(ctx context.Context) (any, error) {
	tree := map[string]any{}
	it := s.client.Collections(ctx)
	for {
		coll, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return tree, nil
		}
		if err != nil {
			return nil, err
		}
		value, err := s.readCollection(ctx, coll.ID)
		if err != nil {
			return nil, err
		}
		tree[coll.ID] = value
	}
}

func (s *Store) readCollection(ctx context.Context, name string) (any, error) {
	docs, err := s.client.Collection(name).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return collectionTree(docs), nil
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
	segments, err := docstore.SplitForWrite(path)
	if err != nil {
		return err
	}
	normalized, err := docstore.Normalize(value)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if len(segments) == 1 {
			return s.writeCollectionTx(tx, segments[0], normalized, onlyIfAbsent)
		}
		return s.writeDocumentTx(tx, segments, normalized, onlyIfAbsent)
	})
	if err != nil {
		if errors.Is(err, docstore.ErrExists) || errors.Is(err, docstore.ErrInvalidValue) {
			return err
		}
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func (s *Store) writeCollectionTx(tx *firestore.Transaction, name string, value any, onlyIfAbsent bool) error {
	coll := s.client.Collection(name)
	existing, err := tx.Documents(coll).GetAll()
	if err != nil {
		return err
	}
	if onlyIfAbsent && len(existing) > 0 {
		return fmt.Errorf("%w: %s", docstore.ErrExists, name)
	}

	children := map[string]any{}
	if value != nil {
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: collection %q needs an object of documents", docstore.ErrInvalidValue, name)
		}
		children = m
	}
	for id, child := range children {
		if _, ok := child.(map[string]any); !ok {
			return fmt.Errorf("%w: document %s/%s must be an object", docstore.ErrInvalidValue, name, id)
		}
	}

	for _, snap := range existing {
		if err := tx.Delete(snap.Ref); err != nil {
			return err
		}
	}
	for id, child := range children {
		if err := tx.Set(coll.Doc(id), child); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeDocumentTx(tx *firestore.Transaction, segments []string, value any, onlyIfAbsent bool) error {
	doc := s.client.Collection(segments[0]).Doc(segments[1])
	snap, err := tx.Get(doc)
	docExists := err == nil && snap.Exists()
	if err != nil && !isNotFound(err) {
		return err
	}

	rel := segments[2:]
	present := docExists
	if docExists && len(rel) > 0 {
		present = valueAt(snap, rel) != nil
	}
	if onlyIfAbsent && present {
		return fmt.Errorf("%w: %s/%s", docstore.ErrExists, segments[0], segments[1])
	}

	if len(rel) == 0 {
		if value == nil {
			if !docExists {
				return nil
			}
			return tx.Delete(doc)
		}
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: document %s/%s must be an object", docstore.ErrInvalidValue, segments[0], segments[1])
		}
		return tx.Set(doc, m)
	}

	fieldPath := firestore.FieldPath(rel)
	if value == nil {
		if !present {
			return nil
		}
		return tx.Update(doc, []firestore.Update{{FieldPath: fieldPath, Value: firestore.Delete}})
	}
	return tx.Set(doc, nest(rel, value), firestore.Merge(fieldPath))
}

func (s *Store) Subscribe(ctx context.Context, path string, fn func(*docstore.Snapshot)) (func(), error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: subscriptions at the root are not supported", docstore.ErrInvalidPath)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	var next func() (any, error)
	var stop func()

	if len(segments) == 1 {
		it := s.client.Collection(segments[0]).Snapshots(watchCtx)
		stop = it.Stop
		next = func() (any, error) {
			qs, err := it.Next()
			if err != nil {
				return nil, err
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				return nil, err
			}
			return collectionTree(docs), nil
		}
	} else {
		it := s.client.Collection(segments[0]).Doc(segments[1]).Snapshots(watchCtx)
		stop = it.Stop
		next = func() (any, error) {
			snap, err := it.Next()
			if err != nil {
				return nil, err
			}
			if !snap.Exists() {
				return nil, nil
			}
			return valueAt(snap, segments[2:]), nil
		}
	}

	emit := func() error {
		value, err := next()
		if err != nil {
			return err
		}
		normalized, err := docstore.Normalize(value)
		if err != nil {
			return err
		}
		fn(docstore.NewSnapshot(path, normalized))
		return nil
	}

	if err := emit(); err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	go func() {
		defer stop()
		for {
			if err := emit(); err != nil {
				if watchCtx.Err() == nil && status.Code(err) != codes.Canceled {
					s.log.Error("Snapshot listener ended", "path", path, "error", err)
				}
				return
			}
		}
	}()

	return cancel, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collections(ctx).Next()
	if err == nil || errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}

func collectionTree(docs []*firestore.DocumentSnapshot) map[string]any {
	tree := make(map[string]any, len(docs))
	for _, d := range docs {
		tree[d.Ref.ID] = d.Data()
	}
	return tree
}

func valueAt(snap *firestore.DocumentSnapshot, rel []string) any {
	if len(rel) == 0 {
		return snap.Data()
	}
	v, err := snap.DataAtPath(firestore.FieldPath(rel))
	if err != nil {
		return nil
	}
	return v
}

// nest wraps value in one object per segment: nest([a b], v) == {a: {b: v}}.
func nest(segments []string, value any) map[string]any {
	out := map[string]any{segments[len(segments)-1]: value}
	for i := len(segments) - 2; i >= 0; i-- {
		out = map[string]any{segments[i]: out}
	}
	return out
}

func isNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}
