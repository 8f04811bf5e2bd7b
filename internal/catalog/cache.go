package catalog

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/poskit/billingd/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("catalog")

// Cache persists the last good snapshot in a local bbolt file so that a
// gateway outage at startup degrades to stale data instead of an empty
// register.
type Cache struct {
	db *bolt.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "catalog: open snapshot cache")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "catalog: init snapshot cache")
	}
	return &Cache{db: db}, nil
}

type cachedSnapshot struct {
	Products  []domain.Product  `json:"products"`
	Customers []domain.Customer `json:"customers"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Save overwrites the cached snapshot.
func (c *Cache) Save(products []domain.Product, customers []domain.Customer, at time.Time) error {
	data, err := jsoniter.Marshal(cachedSnapshot{Products: products, Customers: customers, FetchedAt: at})
	if err != nil {
		return errors.Wrap(err, "catalog: encode snapshot cache")
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte("snapshot"), data)
	})
}

// Load returns the cached snapshot, or ok=false when none was saved yet.
func (c *Cache) Load() (products []domain.Product, customers []domain.Customer, at time.Time, ok bool) {
	var data []byte
	_ = c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(cacheBucket).Get([]byte("snapshot")); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return nil, nil, time.Time{}, false
	}
	var cached cachedSnapshot
	if err := jsoniter.Unmarshal(data, &cached); err != nil {
		return nil, nil, time.Time{}, false
	}
	return cached.Products, cached.Customers, cached.FetchedAt, true
}

func (c *Cache) Close() error {
	return c.db.Close()
}
