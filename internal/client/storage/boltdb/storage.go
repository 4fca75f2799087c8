package boltdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gamelib/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketSession = []byte("session")

	keyToken = []byte("token")
	keyUser  = []byte("user")
)

// openTimeout ограничивает ожидание файловой блокировки, если файл открыт другим процессом
const openTimeout = time.Second

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db     *bbolt.DB
	closed atomic.Bool
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database. Повторный вызов безопасен.
func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSession); err != nil {
			return fmt.Errorf("failed to create session bucket: %w", err)
		}
		return nil
	})
}

func (s *Storage) update(fn func(b *bbolt.Bucket) error) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		return fn(bucket)
	})
}

func (s *Storage) view(fn func(b *bbolt.Bucket) error) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		return fn(bucket)
	})
}
