package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Tanmay0215/legal-ai/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB persists the upload log through a BoltDB backend: one record per successfully
// classified document, listed in the upload panel. Conversation history is deliberately not
// stored here; the transcript lives only for the life of the process.
type BoltDB struct {
	db *bolt.DB
}

const documentsBucket = "documents"

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the
// database with the required bucket and returns an error if the database cannot be opened or
// initialized. The database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(documentsBucket))
		return err
	})

	return BoltDB{db: db}, err
}

// AddDocument stores a new upload record. It generates a unique ID for the record by
// combining a sequence number with the record's original ID, and returns the new ID or an
// error if the operation fails.
func (b BoltDB) AddDocument(_ context.Context, rec models.DocumentRecord) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(documentsBucket))
		if b == nil {
			return nil
		}

		idPrefix, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%d-%s", idPrefix, rec.ID)
		rec.ID = newID

		v, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal document record: %w", err)
		}

		return b.Put([]byte(newID), v)
	})

	return newID, err
}

// Documents retrieves all stored upload records in reverse chronological order. It returns a
// slice of DocumentRecord models or an error if the database operation fails.
func (b BoltDB) Documents(context.Context) ([]models.DocumentRecord, error) {
	var recs []models.DocumentRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(documentsBucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, v []byte) error {
			var rec models.DocumentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal document record: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(recs)
	return recs, nil
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}
