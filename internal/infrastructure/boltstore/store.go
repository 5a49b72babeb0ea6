// Package boltstore is an embedded, single-node receipt store on bbolt.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/repository"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	bucketReceipts = []byte("receipts")
	bucketOrders   = []byte("receipts_by_order")
	bucketItems    = []byte("line_items")
	bucketTimeline = []byte("receipts_by_created")
)

// record is the stored form of a receipt. Seq is its key in the timeline
// bucket and gives a strict creation order.
type record struct {
	Seq     uint64         `json:"seq"`
	Receipt entity.Receipt `json:"receipt"`
}

// Store implements repository.ReceiptRepository. Every mutation runs in a
// single bbolt read-write transaction, which bbolt serializes.
type Store struct {
	db *bolt.DB
}

var _ repository.ReceiptRepository = (*Store)(nil)

// New opens the database file at path and initializes buckets.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketReceipts, bucketOrders, bucketItems, bucketTimeline} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
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

func (s *Store) ExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketOrders).Get([]byte(orderID)) != nil
		return nil
	})
	return exists, err
}

func (s *Store) Create(ctx context.Context, receipt *entity.Receipt, items []entity.LineItem) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := record{Receipt: *receipt}
	err := s.db.Update(func(tx *bolt.Tx) error {
		orders := tx.Bucket(bucketOrders)
		if orders.Get([]byte(rec.Receipt.OrderID)) != nil {
			return repository.ErrDuplicateOrder
		}

		seq, err := tx.Bucket(bucketTimeline).NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq

		now := time.Now().UTC()
		r := &rec.Receipt
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.CreatedAt = now
		r.UpdatedAt = now
		r.Items = make([]entity.LineItem, len(items))
		for i, item := range items {
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.ReceiptID = r.ID
			item.Position = i
			r.Items[i] = item
			if err := tx.Bucket(bucketItems).Put(item.ID[:], r.ID[:]); err != nil {
				return err
			}
		}

		if err := orders.Put([]byte(r.OrderID), r.ID[:]); err != nil {
			return err
		}
		if err := tx.Bucket(bucketTimeline).Put(itob(seq), r.ID[:]); err != nil {
			return err
		}
		return putRecord(tx, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec.Receipt, nil
}

func (s *Store) AttachDocumentURL(ctx context.Context, id uuid.UUID, url string) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated *entity.Receipt
	err := s.db.Update(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		rec.Receipt.PdfURL = &url
		rec.Receipt.UpdatedAt = time.Now().UTC()
		if err := putRecord(tx, rec); err != nil {
			return err
		}
		updated = &rec.Receipt
		return nil
	})
	return updated, err
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var receipt *entity.Receipt
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		receipt = &rec.Receipt
		return nil
	})
	return receipt, err
}

func (s *Store) GetByOrderID(ctx context.Context, orderID string) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var receipt *entity.Receipt
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketOrders).Get([]byte(orderID))
		if raw == nil {
			return repository.ErrReceiptNotFound
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return err
		}
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		receipt = &rec.Receipt
		return nil
	})
	return receipt, err
}

func (s *Store) ListAll(ctx context.Context) ([]entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var receipts []entity.Receipt
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTimeline).ForEach(func(_, v []byte) error {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return err
			}
			rec, err := getRecord(tx, id)
			if err != nil {
				return err
			}
			receipts = append(receipts, rec.Receipt)
			return nil
		})
	})
	return receipts, err
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		for _, item := range rec.Receipt.Items {
			if err := tx.Bucket(bucketItems).Delete(item.ID[:]); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketOrders).Delete([]byte(rec.Receipt.OrderID)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketTimeline).Delete(itob(rec.Seq)); err != nil {
			return err
		}
		return tx.Bucket(bucketReceipts).Delete(id[:])
	})
}

func (s *Store) DeleteLineItem(ctx context.Context, itemID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		items := tx.Bucket(bucketItems)
		raw := items.Get(itemID[:])
		if raw == nil {
			return repository.ErrReceiptNotFound
		}
		receiptID, err := uuid.FromBytes(raw)
		if err != nil {
			return err
		}
		rec, err := getRecord(tx, receiptID)
		if err != nil {
			return err
		}

		kept := rec.Receipt.Items[:0]
		for _, item := range rec.Receipt.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		rec.Receipt.Items = kept
		if err := items.Delete(itemID[:]); err != nil {
			return err
		}
		return putRecord(tx, rec)
	})
}

func getRecord(tx *bolt.Tx, id uuid.UUID) (*record, error) {
	data := tx.Bucket(bucketReceipts).Get(id[:])
	if data == nil {
		return nil, repository.ErrReceiptNotFound
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode receipt %s: %w", id, err)
	}
	// Position is not serialized; slice order is authoritative.
	for i := range rec.Receipt.Items {
		rec.Receipt.Items[i].Position = i
	}
	return &rec, nil
}

func putRecord(tx *bolt.Tx, rec *record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	return tx.Bucket(bucketReceipts).Put(rec.Receipt.ID[:], data)
}

// itob converts a sequence number to a big-endian key so bbolt's byte order
// matches creation order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
