package bbolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/loog-project/rulist/internal/store"
)

var bucketBatches = []byte("batches") // batchID -> Batch

// openTimeout bounds how long we wait for the file lock held by another process.
const openTimeout = time.Second

type Store struct {
	db     *bbolt.DB
	codec  store.Codec
	closed atomic.Bool
}

var _ store.HistoryStore = (*Store)(nil)

// New opens (or creates) a BoltDB database file.
// Pass nil for [codec] to use the default MessagePack implementation.
// If durable is false, commits are not fsynced.
func New(path string, codec store.Codec, durable bool) (*Store, error) {
	if codec == nil {
		codec = store.DefaultCodec
	}
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{
		Timeout:      openTimeout,
		NoSync:       !durable,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketBatches)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create default buckets: %w", err)
	}
	return &Store{db: db, codec: codec}, nil
}

// OpenReadOnly opens an existing file for inspection. Append fails on such a store.
func OpenReadOnly(path string, codec store.Codec) (*Store, error) {
	if codec == nil {
		codec = store.DefaultCodec
	}
	db, err := bbolt.Open(path, 0o444, &bbolt.Options{
		Timeout:  openTimeout,
		ReadOnly: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, codec: codec}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) Append(_ context.Context, b *store.Batch) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBatches)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		b.ID = store.BatchID(seq)

		payload, err := s.codec.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode batch: %w", err)
		}
		return bucket.Put(keyBatch(b.ID), payload)
	})
}

func (s *Store) Get(_ context.Context, id store.BatchID) (*store.Batch, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	var batch store.Batch
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBatches)
		if bucket == nil {
			return store.ErrNotFound
		}
		v := bucket.Get(keyBatch(id))
		if v == nil {
			return store.ErrNotFound
		}
		return s.codec.Unmarshal(v, &batch)
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *Store) Walk(fn func(b *store.Batch) bool) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBatches)
		if bucket == nil {
			// nothing recorded yet
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var batch store.Batch
			if err := s.codec.Unmarshal(v, &batch); err != nil {
				return fmt.Errorf("failed to decode batch %x: %w", k, err)
			}
			if !fn(&batch) {
				return nil
			}
		}
		return nil
	})
}

func keyBatch(id store.BatchID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}
