// Package archive keeps decoded ledgers in a bbolt database so scans can be
// listed and compared later.
package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var (
	// ErrNotFound is returned when no scan has the requested id.
	ErrNotFound = errors.New("scan not found")

	// ErrNoScanID is returned when storing a ledger without a scan id.
	ErrNoScanID = errors.New("ledger has no scan id")
)

// Bucket names.
const (
	BucketScans = "scans"
	BucketCards = "cards"
)

// Summary describes an archived scan without its trips.
type Summary struct {
	ScanID    uuid.UUID `json:"scan_id"`
	ScannedAt time.Time `json:"scanned_at"`
	Family    string    `json:"family"`
	Name      string    `json:"name"`
	Serial    string    `json:"serial,omitempty"`
	Balance   *int64    `json:"balance,omitempty"`
	Currency  string    `json:"currency"`
	Trips     int       `json:"trips"`
	Partial   bool      `json:"partial,omitempty"`
}

func summarize(l *transit.Ledger) Summary {
	return Summary{
		ScanID:    l.ScanID,
		ScannedAt: l.ScannedAt,
		Family:    l.Family,
		Name:      l.Name,
		Serial:    l.Serial,
		Balance:   l.Balance,
		Currency:  l.Currency,
		Trips:     len(l.Trips),
		Partial:   l.Partial(),
	}
}

// Store is the scan archive.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketScans, BucketCards} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// cardKey names the per-card index bucket.
func cardKey(family, serial string) []byte {
	return []byte(family + "\x00" + serial)
}

// historyKey orders scans of one card by time, then id.
func historyKey(l *transit.Ledger) []byte {
	k := make([]byte, 8, 8+16)
	binary.BigEndian.PutUint64(k, uint64(l.ScannedAt.UnixNano()))
	return append(k, l.ScanID[:]...)
}

// Put stores a ledger under its scan id, replacing an earlier copy.
func (s *Store) Put(l *transit.Ledger) error {
	if l.ScanID == uuid.Nil {
		return ErrNoScanID
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		scans := tx.Bucket([]byte(BucketScans))
		if old := scans.Get(l.ScanID[:]); old != nil {
			prev, err := decode(old)
			if err != nil {
				return err
			}
			if err := unindex(tx, prev); err != nil {
				return err
			}
		}
		if err := scans.Put(l.ScanID[:], data); err != nil {
			return err
		}
		if l.Serial == "" {
			return nil
		}
		card, err := tx.Bucket([]byte(BucketCards)).CreateBucketIfNotExists(cardKey(l.Family, l.Serial))
		if err != nil {
			return err
		}
		return card.Put(historyKey(l), l.ScanID[:])
	})
}

func decode(data []byte) (*transit.Ledger, error) {
	var l transit.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	return &l, nil
}

// Get returns the ledger of a scan.
func (s *Store) Get(id uuid.UUID) (*transit.Ledger, error) {
	var l *transit.Ledger
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(BucketScans)).Get(id[:])
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		var err error
		l, err = decode(data)
		return err
	})
	return l, err
}

// List returns a summary of every scan, newest first.
func (s *Store) List() ([]Summary, error) {
	var out []Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketScans)).ForEach(func(_, v []byte) error {
			l, err := decode(v)
			if err != nil {
				return err
			}
			out = append(out, summarize(l))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b Summary) int {
		if c := b.ScannedAt.Compare(a.ScannedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ScanID[:], b.ScanID[:])
	})
	return out, nil
}

// History returns the scans of one card, oldest first.
func (s *Store) History(family, serial string) ([]*transit.Ledger, error) {
	var out []*transit.Ledger
	err := s.db.View(func(tx *bolt.Tx) error {
		card := tx.Bucket([]byte(BucketCards)).Bucket(cardKey(family, serial))
		if card == nil {
			return nil
		}
		scans := tx.Bucket([]byte(BucketScans))
		return card.ForEach(func(_, id []byte) error {
			data := scans.Get(id)
			if data == nil {
				return nil
			}
			l, err := decode(data)
			if err != nil {
				return err
			}
			out = append(out, l)
			return nil
		})
	})
	return out, err
}

// Delete removes a scan.
func (s *Store) Delete(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		scans := tx.Bucket([]byte(BucketScans))
		data := scans.Get(id[:])
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		l, err := decode(data)
		if err != nil {
			return err
		}
		if err := unindex(tx, l); err != nil {
			return err
		}
		return scans.Delete(id[:])
	})
}

func unindex(tx *bolt.Tx, l *transit.Ledger) error {
	if l.Serial == "" {
		return nil
	}
	card := tx.Bucket([]byte(BucketCards)).Bucket(cardKey(l.Family, l.Serial))
	if card == nil {
		return nil
	}
	return card.Delete(historyKey(l))
}
