package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"aipm/internal/types"
)

var (
	bucketRecords = []byte("session_records")

	ErrRecordNotFound = errors.New("session record not found")
)

// Archive persists finished session records for audit.
type Archive interface {
	SaveRecord(ctx context.Context, record *types.SessionRecord) error
	GetRecord(ctx context.Context, sessionID string) (*types.SessionRecord, error)
	ListRecords(ctx context.Context, limit int) ([]*types.SessionRecord, error)
	Close() error
}

type bboltArchive struct {
	db *bolt.DB
}

func NewBboltArchive(path string) (Archive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("archive db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltArchive{db: db}, nil
}

func (a *bboltArchive) SaveRecord(ctx context.Context, record *types.SessionRecord) error {
	if record == nil {
		return errors.New("record is required")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return errors.New("record session id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(record.SessionID), data)
	})
}

func (a *bboltArchive) GetRecord(ctx context.Context, sessionID string) (*types.SessionRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record *types.SessionRecord
	err := a.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(sessionID))
		if data == nil {
			return ErrRecordNotFound
		}
		record = &types.SessionRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns records most recently completed first.
func (a *bboltArchive) ListRecords(ctx context.Context, limit int) ([]*types.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []*types.SessionRecord
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, data []byte) error {
			record := &types.SessionRecord{}
			if err := json.Unmarshal(data, record); err != nil {
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *bboltArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
