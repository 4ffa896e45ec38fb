package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"bot-file-system/model"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleDatabase PebbleDB implementation. All collections share one store
// and are separated by key prefix so multi-collection writes can go into
// a single atomic batch.
type PebbleDatabase struct {
	db *pebble.DB

	// mu serializes read-modify-write sequences on sessions
	mu sync.Mutex

	sessionIDCounter atomic.Int64
	chunkIDCounter   atomic.Int64
	fileIDCounter    atomic.Int64
}

// PebbleConfig PebbleDB configuration
type PebbleConfig struct {
	DataDir  string
	InMemory bool // Keep everything in memory, for tests and throwaway runs
}

// Collection prefixes and their key-value formats
const (
	collectionSession      = "session:"       // key: {session_id}, value: JSON(UploadSession)
	collectionSessionChunk = "session_chunk:" // key: {session_id}:{chunk_index:%08d}, value: JSON(UploadChunk)
	collectionFile         = "file:"          // key: {file_id}, value: JSON(FileRecord)
	collectionFileChunk    = "file_chunk:"    // key: {file_id}:{chunk_index:%08d}, value: JSON(FileChunk)
	collectionCounters     = "counters:"      // key: session/chunk/file, value: {max_id}
)

// Counter keys
const (
	keySessionCounter = "session"
	keyChunkCounter   = "chunk"
	keyFileCounter    = "file"
)

// NewPebbleDatabase create PebbleDB database instance
func NewPebbleDatabase(config interface{}) (Database, error) {
	cfg, ok := config.(*PebbleConfig)
	if !ok {
		return nil, fmt.Errorf("invalid PebbleDB config type")
	}

	opts := &pebble.Options{}
	path := filepath.Join(cfg.DataDir, "uploader_db")
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = "uploader_db"
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
		}
		log.Printf("PebbleDB data directory: %s", cfg.DataDir)
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}

	pdb := &PebbleDatabase{db: db}
	if err := pdb.loadCounters(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}

	if !cfg.InMemory {
		log.Printf("PebbleDB database connected successfully")
	}
	return pdb, nil
}

// loadCounters load ID counters from counters collection
func (p *PebbleDatabase) loadCounters() error {
	counters := []struct {
		key     string
		counter *atomic.Int64
	}{
		{keySessionCounter, &p.sessionIDCounter},
		{keyChunkCounter, &p.chunkIDCounter},
		{keyFileCounter, &p.fileIDCounter},
	}
	for _, c := range counters {
		val, closer, err := p.db.Get([]byte(collectionCounters + c.key))
		if errors.Is(err, pebble.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		count, _ := strconv.ParseInt(string(val), 10, 64)
		closer.Close()
		c.counter.Store(count)
	}
	return nil
}

func (p *PebbleDatabase) nextID(b *pebble.Batch, key string, counter *atomic.Int64) (int64, error) {
	id := counter.Add(1)
	if err := b.Set([]byte(collectionCounters+key), []byte(strconv.FormatInt(id, 10)), nil); err != nil {
		return 0, err
	}
	return id, nil
}

func sessionKey(sessionID string) []byte {
	return []byte(collectionSession + sessionID)
}

func sessionChunkPrefix(sessionID string) []byte {
	return []byte(collectionSessionChunk + sessionID + ":")
}

func sessionChunkKey(sessionID string, index int) []byte {
	return []byte(fmt.Sprintf("%s%s:%08d", collectionSessionChunk, sessionID, index))
}

func fileKey(fileID string) []byte {
	return []byte(collectionFile + fileID)
}

func fileChunkPrefix(fileID string) []byte {
	return []byte(collectionFileChunk + fileID + ":")
}

func fileChunkKey(fileID string, index int) []byte {
	return []byte(fmt.Sprintf("%s%s:%08d", collectionFileChunk, fileID, index))
}

// prefixUpperBound smallest key greater than every key with prefix
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	return append(upper, 0xFF)
}

func (p *PebbleDatabase) getJSON(key []byte, dest interface{}) error {
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()
	return json.Unmarshal(val, dest)
}

func setJSON(b *pebble.Batch, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return b.Set(key, data, nil)
}

// scanPrefix calls fn with every value under prefix, in key order
func (p *PebbleDatabase) scanPrefix(prefix []byte, fn func(value []byte) error) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// UploadSession operations

func (p *PebbleDatabase) CreateUploadSession(ctx context.Context, session *model.UploadSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.db.NewBatch()
	defer b.Close()

	id, err := p.nextID(b, keySessionCounter, &p.sessionIDCounter)
	if err != nil {
		return err
	}
	now := time.Now()
	session.ID = id
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if err := setJSON(b, sessionKey(session.SessionId), session); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleDatabase) GetUploadSession(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	var session model.UploadSession
	if err := p.getJSON(sessionKey(sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *PebbleDatabase) RefreshUploadedChunks(ctx context.Context, sessionID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var session model.UploadSession
	if err := p.getJSON(sessionKey(sessionID), &session); err != nil {
		return 0, err
	}

	count := 0
	if err := p.scanPrefix(sessionChunkPrefix(sessionID), func([]byte) error {
		count++
		return nil
	}); err != nil {
		return 0, err
	}

	session.UploadedChunks = count
	session.UpdatedAt = time.Now()

	b := p.db.NewBatch()
	defer b.Close()
	if err := setJSON(b, sessionKey(sessionID), &session); err != nil {
		return 0, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *PebbleDatabase) DeleteUploadSession(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.db.NewBatch()
	defer b.Close()
	p.deleteSessionInBatch(b, sessionID)
	return b.Commit(pebble.Sync)
}

func (p *PebbleDatabase) deleteSessionInBatch(b *pebble.Batch, sessionID string) {
	prefix := sessionChunkPrefix(sessionID)
	b.DeleteRange(prefix, prefixUpperBound(prefix), nil)
	b.Delete(sessionKey(sessionID), nil)
}

func (p *PebbleDatabase) ListExpiredUploadSessions(ctx context.Context, before time.Time, limit int) ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	errLimit := errors.New("limit reached")

	err := p.scanPrefix([]byte(collectionSession), func(value []byte) error {
		var session model.UploadSession
		if err := json.Unmarshal(value, &session); err != nil {
			return nil
		}
		if session.ExpiresAt.Before(before) {
			sessions = append(sessions, &session)
			if limit > 0 && len(sessions) >= limit {
				return errLimit
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}
	return sessions, nil
}

// UploadChunk operations

func (p *PebbleDatabase) CreateUploadChunk(ctx context.Context, chunk *model.UploadChunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Cancel, sweep and finalize take p.mu too, so the session cannot
	// vanish between this check and the commit below.
	var session model.UploadSession
	if err := p.getJSON(sessionKey(chunk.SessionId), &session); err != nil {
		return err
	}

	key := sessionChunkKey(chunk.SessionId, chunk.ChunkIndex)
	var existing model.UploadChunk
	switch err := p.getJSON(key, &existing); {
	case err == nil:
		return ErrDuplicate
	case !errors.Is(err, ErrNotFound):
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()

	id, err := p.nextID(b, keyChunkCounter, &p.chunkIDCounter)
	if err != nil {
		return err
	}
	chunk.ID = id
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}
	if err := setJSON(b, key, chunk); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleDatabase) GetUploadChunk(ctx context.Context, sessionID string, chunkIndex int) (*model.UploadChunk, error) {
	var chunk model.UploadChunk
	if err := p.getJSON(sessionChunkKey(sessionID, chunkIndex), &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (p *PebbleDatabase) ListUploadChunks(ctx context.Context, sessionID string) ([]*model.UploadChunk, error) {
	var chunks []*model.UploadChunk
	// Zero-padded index keeps key order equal to chunk order
	err := p.scanPrefix(sessionChunkPrefix(sessionID), func(value []byte) error {
		var chunk model.UploadChunk
		if err := json.Unmarshal(value, &chunk); err != nil {
			return fmt.Errorf("failed to decode chunk of session %s: %w", sessionID, err)
		}
		chunks = append(chunks, &chunk)
		return nil
	})
	return chunks, err
}

// FileRecord operations

func (p *PebbleDatabase) CreateFileRecord(ctx context.Context, file *model.FileRecord, chunks []*model.FileChunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.db.NewBatch()
	defer b.Close()
	if err := p.putFileInBatch(b, file, chunks); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleDatabase) putFileInBatch(b *pebble.Batch, file *model.FileRecord, chunks []*model.FileChunk) error {
	id, err := p.nextID(b, keyFileCounter, &p.fileIDCounter)
	if err != nil {
		return err
	}
	now := time.Now()
	file.ID = id
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now
	if err := setJSON(b, fileKey(file.FileId), file); err != nil {
		return err
	}
	for _, chunk := range chunks {
		chunk.FileId = file.FileId
		if err := setJSON(b, fileChunkKey(file.FileId, chunk.ChunkIndex), chunk); err != nil {
			return err
		}
	}
	return nil
}

func (p *PebbleDatabase) GetFileRecord(ctx context.Context, fileID string) (*model.FileRecord, error) {
	var file model.FileRecord
	if err := p.getJSON(fileKey(fileID), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (p *PebbleDatabase) ListFileChunks(ctx context.Context, fileID string) ([]*model.FileChunk, error) {
	var chunks []*model.FileChunk
	err := p.scanPrefix(fileChunkPrefix(fileID), func(value []byte) error {
		var chunk model.FileChunk
		if err := json.Unmarshal(value, &chunk); err != nil {
			return fmt.Errorf("failed to decode chunk of file %s: %w", fileID, err)
		}
		chunks = append(chunks, &chunk)
		return nil
	})
	return chunks, err
}

func (p *PebbleDatabase) FinalizeUploadSession(ctx context.Context, sessionID string, file *model.FileRecord, chunks []*model.FileChunk, beforeCommit func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var session model.UploadSession
	if err := p.getJSON(sessionKey(sessionID), &session); err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()

	if err := p.putFileInBatch(b, file, chunks); err != nil {
		return err
	}
	p.deleteSessionInBatch(b, sessionID)

	if beforeCommit != nil {
		if err := beforeCommit(); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// Close close database
func (p *PebbleDatabase) Close() error {
	return p.db.Close()
}
