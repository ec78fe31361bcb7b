package persistence

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v3"

	"github.com/gaiasync/gaiasync/internal/core/observability/log"
)

const characterPrefix = "character/"

var (
	// ErrNotFound is returned when no character exists under the name.
	ErrNotFound = errors.New("persistence: character not found")
	// ErrCorrupted is returned when a stored value fails its checksum.
	ErrCorrupted = errors.New("persistence: value failed checksum")
)

// Store wraps a Badger database holding character records.
type Store struct {
	db     *badger.DB
	logger log.Log
}

// Open opens (creating if needed) a store under dir.
func Open(dir string, logger log.Log) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts, logger)
}

// OpenInMemory opens a store backed by memory only. Used by tests and
// throwaway dev runs; nothing survives Close.
func OpenInMemory(logger log.Log) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger log.Log) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persistence: open database: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(log.String("component", "persistence")),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func characterKey(name string) []byte {
	return []byte(characterPrefix + name)
}

// sealValue prefixes payload with its xxhash64 so loads can detect torn
// or tampered values.
func sealValue(payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(buf, xxhash.Sum64(payload))
	copy(buf[8:], payload)
	return buf
}

func openValue(value []byte) ([]byte, error) {
	if len(value) < 8 {
		return nil, ErrCorrupted
	}
	payload := value[8:]
	if binary.BigEndian.Uint64(value) != xxhash.Sum64(payload) {
		return nil, ErrCorrupted
	}
	return payload, nil
}

// SaveCharacter writes one character record, replacing any existing
// record under the same name.
func (s *Store) SaveCharacter(c Character) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("persistence: encode %s: %w", c.Name, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(characterKey(c.Name), sealValue(payload))
	})
	if err != nil {
		return fmt.Errorf("persistence: save %s: %w", c.Name, err)
	}
	return nil
}

// LoadCharacter reads the record stored under name. Returns ErrNotFound
// when no record exists and ErrCorrupted when the value fails its
// checksum.
func (s *Store) LoadCharacter(name string) (Character, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(characterKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Character{}, ErrNotFound
	}
	if err != nil {
		return Character{}, fmt.Errorf("persistence: load %s: %w", name, err)
	}

	payload, err := openValue(raw)
	if err != nil {
		return Character{}, fmt.Errorf("persistence: load %s: %w", name, err)
	}
	var c Character
	if err := json.Unmarshal(payload, &c); err != nil {
		return Character{}, fmt.Errorf("persistence: decode %s: %w", name, err)
	}
	return c, nil
}

// SaveAll writes the batch through one WriteBatch. Used by the shutdown
// fan-out and the background saver.
func (s *Store) SaveAll(chars []Character) error {
	if len(chars) == 0 {
		return nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, c := range chars {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("persistence: encode %s: %w", c.Name, err)
		}
		if err := wb.Set(characterKey(c.Name), sealValue(payload)); err != nil {
			return fmt.Errorf("persistence: batch %s: %w", c.Name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("persistence: flush batch: %w", err)
	}
	return nil
}

// CharacterNames lists every stored character name. Key-only iteration,
// values are not touched.
func (s *Store) CharacterNames() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(characterPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: list characters: %w", err)
	}
	return names, nil
}
