// Package vault provides the deduplicated, content-addressed blob pool
// backing the object store's blob half. It is adapted from the teacher's
// content-safe (internal/safe) package: an LRU cache in front of optional
// zstd-compressed Badger persistence. Unlike the teacher's Safe, blobs here
// are immortal — there is no ref-counting and no Delete, matching the
// spec's "blobs are immortal" invariant.
package vault

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

// Options configures a Vault.
type Options struct {
	CacheSize int // number of blobs kept decompressed in memory

	// CompressAfter is the minimum content size, in bytes, before zstd
	// compression is applied. Small blobs are stored as-is.
	CompressAfter int

	// DB, when non-nil, backs the vault with Badger so its contents
	// survive a Snapshot/Restore round trip. A nil DB keeps the vault
	// purely in-memory, preserving the core's in-memory contract.
	DB *badger.DB
}

// Vault is a deduplicated content pool keyed by hash.
type Vault struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, []byte]
	opts  Options

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a Vault. Passing a zero Options.CacheSize defaults to 1000.
func New(opts Options) (*Vault, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating blob cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Vault{
		cache:   cache,
		opts:    opts,
		encoder: enc,
		decoder: dec,
	}, nil
}

func (v *Vault) shouldCompress(content []byte) bool {
	return len(content) >= v.opts.CompressAfter && v.opts.CompressAfter > 0
}

// Store writes content under hash, idempotently: a second Store call for a
// hash that already exists is a no-op and the existing content remains
// authoritative.
func (v *Vault) Store(hash string, content []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.cache.Get(hash); ok {
		return nil
	}
	if v.opts.DB != nil {
		if exists, err := v.dbExists(hash); err != nil {
			return err
		} else if exists {
			// Persisted but evicted from cache: warm the cache and stop.
			cached, err := v.dbGet(hash)
			if err != nil {
				return err
			}
			v.cache.Add(hash, cached)
			return nil
		}
	}

	if content == nil {
		content = []byte{}
	}

	if v.opts.DB != nil {
		if err := v.dbPut(hash, content); err != nil {
			return fmt.Errorf("persisting blob %s: %w", hash, err)
		}
	}

	v.cache.Add(hash, content)
	return nil
}

// Get returns the content stored under hash and whether it was found.
func (v *Vault) Get(hash string) ([]byte, bool) {
	v.mu.RLock()
	if content, ok := v.cache.Get(hash); ok {
		v.mu.RUnlock()
		return content, true
	}
	v.mu.RUnlock()

	if v.opts.DB == nil {
		return nil, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	exists, err := v.dbExists(hash)
	if err != nil || !exists {
		return nil, false
	}
	content, err := v.dbGet(hash)
	if err != nil {
		return nil, false
	}
	v.cache.Add(hash, content)
	return content, true
}

// Exists reports whether hash is present without materializing its content.
func (v *Vault) Exists(hash string) bool {
	v.mu.RLock()
	if v.cache.Contains(hash) {
		v.mu.RUnlock()
		return true
	}
	v.mu.RUnlock()

	if v.opts.DB == nil {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	exists, _ := v.dbExists(hash)
	return exists
}

// All returns every hash currently cached, for snapshotting.
func (v *Vault) All() map[string][]byte {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string][]byte, v.cache.Len())
	for _, hash := range v.cache.Keys() {
		if content, ok := v.cache.Peek(hash); ok {
			out[hash] = content
		}
	}
	return out
}

func blobKey(hash string) []byte {
	return []byte("blob:" + hash)
}

func (v *Vault) dbPut(hash string, content []byte) error {
	payload := content
	if v.shouldCompress(content) {
		payload = v.encoder.EncodeAll(content, nil)
		payload = append([]byte{1}, payload...)
	} else {
		payload = append([]byte{0}, payload...)
	}

	return v.opts.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(hash), payload)
	})
}

func (v *Vault) dbGet(hash string) ([]byte, error) {
	var raw []byte
	err := v.opts.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append(raw, val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []byte{}, nil
	}

	flag, body := raw[0], raw[1:]
	if flag == 1 {
		decoded, err := v.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing blob %s: %w", hash, err)
		}
		return decoded, nil
	}
	return bytes.Clone(body), nil
}

func (v *Vault) dbExists(hash string) (bool, error) {
	err := v.opts.DB.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blobKey(hash))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
