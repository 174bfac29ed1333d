package store

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// Bucket is the KV bucket holding the document.
	Bucket = "configuration"
	// DocumentKey is the key of the document inside Bucket.
	DocumentKey = "document"
)

// KVStore keeps the document in a JetStream key-value bucket. Every put is
// a new revision; the bucket keeps the last few.
type KVStore struct {
	kv jetstream.KeyValue
}

// OpenKV creates or updates the bucket and returns a store on it.
func OpenKV(ctx context.Context, js jetstream.JetStream, storage jetstream.StorageType) (*KVStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      Bucket,
		Description: "configuration document",
		History:     5,
		Storage:     storage,
	})
	if err != nil {
		return nil, err
	}
	return &KVStore{kv: kv}, nil
}

// NewKVStore wraps an existing bucket.
func NewKVStore(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Load(ctx context.Context) ([]byte, error) {
	entry, err := s.kv.Get(ctx, DocumentKey)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

// Replace writes doc as a single put, so readers see the old or the new
// document and nothing in between.
func (s *KVStore) Replace(ctx context.Context, doc []byte) error {
	_, err := s.kv.Put(ctx, DocumentKey, doc)
	return err
}
