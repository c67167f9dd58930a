// Package idempotency remembers which certificate an Idempotency-Key produced
// so a retried issue request does not create a second record.
package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const DefaultTTL = 30 * time.Minute

const keyPrefix = "issue/"

// maxConflictRetries bounds how often Reserve retries a transaction that lost
// a write conflict against a concurrent reservation of the same key.
const maxConflictRetries = 5

var ErrNotReserved = errors.New("idempotency key not reserved")

// Entry is what a key maps to. An empty CertID marks a reservation whose
// issuance has not finished yet.
type Entry struct {
	Fingerprint string `json:"fingerprint"`
	CertID      string `json:"certId,omitempty"`
}

func (e Entry) Pending() bool {
	return e.CertID == ""
}

type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewCache wraps an open badger database. Entries expire after ttl.
func NewCache(db *badger.DB, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl}
}

// OpenInMemory opens a badger database that lives only as long as the process.
func OpenInMemory() (*badger.DB, error) {
	opt := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// Reserve claims key for a request with the given fingerprint. It reports
// reserved=true when the caller now owns the key and must later call Complete
// or Forget. Otherwise the entry already held under key is returned.
func (c *Cache) Reserve(key, fingerprint string) (Entry, bool, error) {
	for attempt := 0; ; attempt++ {
		var existing Entry
		var reserved bool

		err := c.db.Update(func(txn *badger.Txn) error {
			found, err := getEntry(txn, key, &existing)
			if err != nil {
				return err
			}
			if found {
				return nil
			}
			reserved = true
			return setEntry(txn, key, Entry{Fingerprint: fingerprint}, c.ttl)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return Entry{}, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if reserved {
			return Entry{Fingerprint: fingerprint}, true, nil
		}
		return existing, false, nil
	}
}

// Complete records the certificate issued for a reserved key.
func (c *Cache) Complete(key, fingerprint, certID string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		var existing Entry
		found, err := getEntry(txn, key, &existing)
		if err != nil {
			return err
		}
		if !found || existing.Fingerprint != fingerprint {
			return ErrNotReserved
		}
		return setEntry(txn, key, Entry{Fingerprint: fingerprint, CertID: certID}, c.ttl)
	})
}

// Lookup returns the entry stored under key and whether it was found.
func (c *Cache) Lookup(key string) (Entry, bool, error) {
	var entry Entry
	var found bool
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getEntry(txn, key, &entry)
		return err
	})
	if err != nil {
		return Entry{}, false, err
	}
	return entry, found, nil
}

// Forget drops key, releasing a reservation whose issuance failed.
func (c *Cache) Forget(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

func getEntry(txn *badger.Txn, key string, entry *Entry) (bool, error) {
	item, err := txn.Get([]byte(keyPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error retrieving idempotency key: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, entry)
	})
	if err != nil {
		return false, fmt.Errorf("decode idempotency entry: %w", err)
	}
	return true, nil
}

func setEntry(txn *badger.Txn, key string, entry Entry, ttl time.Duration) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode idempotency entry: %w", err)
	}
	e := badger.NewEntry([]byte(keyPrefix+key), b).WithTTL(ttl)
	if err := txn.SetEntry(e); err != nil {
		return fmt.Errorf("failed to set idempotency key: %w", err)
	}
	return nil
}
