package repositories

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/curator/internal/models"
	bolt "go.etcd.io/bbolt"
)

var (
	_ models.CredentialBackend = (*BoltCredentialRepository)(nil)

	bucketCredentials = []byte("credentials")
)

// BoltCredentialRepository implements [models.CredentialBackend] on a bbolt file.
type BoltCredentialRepository struct {
	db *bolt.DB
}

// OpenBoltCredentialRepository opens (or creates) the bolt file at path and ensures the credentials bucket exists.
func OpenBoltCredentialRepository(path string) (*BoltCredentialRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create credentials bucket: %w", err)
	}

	return &BoltCredentialRepository{db: db}, nil
}

// Close releases the bolt file lock.
func (r *BoltCredentialRepository) Close() error {
	return r.db.Close()
}

// Load reads the stored triple. Missing keys yield empty fields.
func (r *BoltCredentialRepository) Load() (models.Credentials, error) {
	var creds models.Credentials
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		creds = models.Credentials{
			PrimaryAccess:  string(b.Get([]byte(models.PrimaryAccess.Key()))),
			PrimaryRefresh: string(b.Get([]byte(models.PrimaryRefresh.Key()))),
			ProviderAccess: string(b.Get([]byte(models.ProviderAccess.Key()))),
		}
		return nil
	})
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return creds, nil
}

// Save replaces the stored triple in one bolt transaction. Empty fields delete their key.
func (r *BoltCredentialRepository) Save(creds models.Credentials) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		for _, kind := range models.TokenKinds {
			key := []byte(kind.Key())
			value := creds.Get(kind)
			if value == "" {
				if err := b.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(key, []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Clear drops and recreates the credentials bucket.
func (r *BoltCredentialRepository) Clear() error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCredentials); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketCredentials)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
