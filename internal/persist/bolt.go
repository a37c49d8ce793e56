package persist

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("documents")

// Bolt keeps the snapshot in a bbolt database file.
type Bolt struct {
	db  *bolt.DB
	key []byte
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path, key string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bolt bucket: %w", err)
	}
	return &Bolt{db: db, key: []byte(key)}, nil
}

func (b *Bolt) Load() (string, error) {
	var content string
	err := b.db.View(func(tx *bolt.Tx) error {
		// Values are only valid inside the transaction; string() copies.
		content = string(tx.Bucket(boltBucket).Get(b.key))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("loading snapshot: %w", err)
	}
	return content, nil
}

func (b *Bolt) Save(content string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(b.key, []byte(content))
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
