package cache

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/portainer"
)

// Key prefixes per resource class. Entries are keyed prefix+ID with
// JSON-encoded values.
const (
	endpointPrefix  = "endpoint/"
	containerPrefix = "container/"
	stackPrefix     = "stack/"
)

// Store is a BadgerDB-backed local cache of the last-known resource
// listings. Saves are full replacements: stale IDs never linger past a
// successful fetch.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens (or creates) the cache at dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	return open(opts, logger)
}

// OpenInMemory opens a cache with no disk persistence, for tests.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return open(opts, logger)
}

func open(opts badger.Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEndpoints replaces the cached endpoint listing.
func (s *Store) SaveEndpoints(endpoints []portainer.Endpoint) error {
	return replace(s, endpointPrefix, endpoints, func(e portainer.Endpoint) string { return e.ID })
}

// LoadEndpoints returns the cached endpoint listing, sorted.
func (s *Store) LoadEndpoints() ([]portainer.Endpoint, error) {
	endpoints, err := load[portainer.Endpoint](s, endpointPrefix)
	if err != nil {
		return nil, err
	}
	portainer.SortEndpoints(endpoints)
	return endpoints, nil
}

// SaveContainers replaces the cached container listing. Entries are only
// meaningful under the endpoint selection they were fetched for; the caller
// owns that association.
func (s *Store) SaveContainers(containers []portainer.Container) error {
	return replace(s, containerPrefix, containers, func(c portainer.Container) string { return c.ID })
}

// LoadContainers returns the cached container listing, sorted.
func (s *Store) LoadContainers() ([]portainer.Container, error) {
	containers, err := load[portainer.Container](s, containerPrefix)
	if err != nil {
		return nil, err
	}
	portainer.SortContainers(containers)
	return containers, nil
}

// SaveStacks replaces the cached stack listing.
func (s *Store) SaveStacks(stacks []portainer.Stack) error {
	return replace(s, stackPrefix, stacks, func(st portainer.Stack) string { return st.ID })
}

// LoadStacks returns the cached stack listing, sorted.
func (s *Store) LoadStacks() ([]portainer.Stack, error) {
	stacks, err := load[portainer.Stack](s, stackPrefix)
	if err != nil {
		return nil, err
	}
	portainer.SortStacks(stacks)
	return stacks, nil
}

// replace deletes every entry under prefix and writes the new collection in
// one transaction, so readers see either the old listing or the new one.
func replace[T any](s *Store, prefix string, items []T, id func(T) string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix)})
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, item := range items {
			value, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(prefix+id(item)), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s entries: %w", prefix, err)
	}
	return nil
}

func load[T any](s *Store, prefix string) ([]T, error) {
	var items []T
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix), PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var item T
				if err := json.Unmarshal(value, &item); err != nil {
					return err
				}
				items = append(items, item)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s entries: %w", prefix, err)
	}
	return items, nil
}
