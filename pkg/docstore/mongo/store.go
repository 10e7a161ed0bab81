// Package mongo stores the document tree in a single MongoDB collection. Each
// written path becomes one document {_id: path, value: subtree}; reads above a
// written path assemble the subtree from its descendants.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/docstore"
	"staybook/pkg/logger"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const DefaultCollectionName = "Documents"

type Config struct {
	Database     string
	Collection   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type document struct {
	ID    string `bson:"_id"`
	Value any    `bson:"value"`
}

type Store struct {
	cfg        Config
	client     *mongo.Client
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
	log        *logger.Logger
}

func New(client *mongo.Client, cfg Config, log *logger.Logger) *Store {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollectionName
	}
	collOpts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	return &Store{
		cfg:        cfg,
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection, collOpts),
		txManager:  mongotx.NewTransactionManager(client),
		log:        log,
	}
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := mongotx.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	value, err := s.read(ctx, segments)
	if err != nil {
		return nil, err
	}
	return docstore.NewSnapshot(path, value), nil
}

func (s *Store) read(ctx context.Context, segments []string) (any, error) {
	if len(segments) == 0 {
		return s.assemble(ctx, nil, bson.M{})
	}

	owner, err := s.findOwner(ctx, segments)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		value, err := normalized(owner)
		if err != nil {
			return nil, err
		}
		return docstore.ValueAt(value, segments[depth(owner.ID):]), nil
	}

	return s.assemble(ctx, segments, descendantsFilter(segments))
}

// findOwner returns the document stored at segments or at one of its ancestors.
func (s *Store) findOwner(ctx context.Context, segments []string) (*document, error) {
	if len(segments) == 0 {
		return nil, nil
	}
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": bson.M{"$in": docstore.Prefixes(segments)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find document %q: %w", strings.Join(segments, "/"), err)
	}
	return &doc, nil
}

func (s *Store) assemble(ctx context.Context, base []string, filter bson.M) (any, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find documents under %q: %w", strings.Join(base, "/"), err)
	}
	defer cursor.Close(ctx)

	var docs []*document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	var tree any
	for _, doc := range docs {
		value, err := normalized(doc)
		if err != nil {
			return nil, err
		}
		rel := strings.Split(doc.ID, "/")[len(base):]
		tree = docstore.SetValueAt(tree, rel, value)
	}
	return tree, nil
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
	normalizedValue, err := docstore.Normalize(value)
	if err != nil {
		return err
	}

	ctx, cancel := mongotx.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return s.writeTx(sessCtx, segments, normalizedValue, onlyIfAbsent)
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", docstore.ErrExists, path)
		}
		return err
	}
	return nil
}

func (s *Store) writeTx(ctx mongo.SessionContext, segments []string, value any, onlyIfAbsent bool) error {
	path := strings.Join(segments, "/")

	owner, err := s.findOwner(ctx, segments[:len(segments)-1])
	if err != nil {
		return err
	}

	if owner != nil {
		current, err := normalized(owner)
		if err != nil {
			return err
		}
		rel := segments[depth(owner.ID):]
		if onlyIfAbsent && docstore.ValueAt(current, rel) != nil {
			return fmt.Errorf("%w: %s", docstore.ErrExists, path)
		}
		updated := docstore.SetValueAt(current, rel, value)
		if updated == nil {
			_, err = s.collection.DeleteOne(ctx, bson.M{"_id": owner.ID})
		} else {
			_, err = s.collection.UpdateOne(ctx, bson.M{"_id": owner.ID}, bson.M{"$set": bson.M{"value": updated}})
		}
		if err != nil {
			return fmt.Errorf("failed to update document %q: %w", owner.ID, err)
		}
		return nil
	}

	selfAndBelow := bson.M{"$or": bson.A{bson.M{"_id": path}, descendantsFilter(segments)}}
	if onlyIfAbsent {
		n, err := s.collection.CountDocuments(ctx, selfAndBelow, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("failed to check document %q: %w", path, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", docstore.ErrExists, path)
		}
	} else if _, err := s.collection.DeleteMany(ctx, selfAndBelow); err != nil {
		return fmt.Errorf("failed to clear document %q: %w", path, err)
	}

	if value == nil {
		return nil
	}
	if _, err := s.collection.InsertOne(ctx, &document{ID: path, Value: value}); err != nil {
		return fmt.Errorf("failed to insert document %q: %w", path, err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string, fn func(*docstore.Snapshot)) (func(), error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	pipeline := mongo.Pipeline{}
	if len(segments) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"documentKey._id": bson.M{"$in": docstore.Prefixes(segments)}},
			bson.M{"documentKey._id": bson.M{"$regex": descendantsPattern(segments)}},
		}}}})
	}

	stream, err := s.collection.Watch(watchCtx, pipeline)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	initial, err := s.Get(watchCtx, path)
	if err != nil {
		cancel()
		_ = stream.Close(context.Background())
		return nil, err
	}
	fn(initial)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			snap, err := s.Get(watchCtx, path)
			if err != nil {
				s.log.Warn("Failed to refresh watched path", "path", path, "error", err)
				continue
			}
			fn(snap)
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			s.log.Error("Change stream ended", "path", path, "error", err)
		}
	}()

	return cancel, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close leaves the mongo client connected; its owner disconnects it.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func depth(id string) int {
	return strings.Count(id, "/") + 1
}

func descendantsPattern(segments []string) string {
	return "^" + regexp.QuoteMeta(strings.Join(segments, "/")+"/")
}

func descendantsFilter(segments []string) bson.M {
	return bson.M{"_id": bson.M{"$regex": descendantsPattern(segments)}}
}

func normalized(doc *document) (any, error) {
	return docstore.Normalize(doc.Value)
}
