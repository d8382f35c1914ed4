package docstore

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// document is the on-disk layout of one collection file.
type document[V any] struct {
	NextID  int64 `json:"next_id"`
	Records []V   `json:"records"`
}

// collection is an in-memory map of records mirrored to a single JSON file.
// Every write rewrites the whole file through a temp file and rename, so a
// reader never observes a half-written collection.  An empty path keeps the
// collection in memory only.
type collection[K cmp.Ordered, V any] struct {
	mu     sync.RWMutex
	path   string
	key    func(V) K
	nextID int64
	items  map[K]V
}

func newCollection[K cmp.Ordered, V any](path string, key func(V) K) (*collection[K, V], error) {
	c := &collection[K, V]{path: path, key: key, items: make(map[K]V)}
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return c, nil
	}
	var doc document[V]
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	c.nextID = doc.NextID
	for _, v := range doc.Records {
		c.items[key(v)] = v
	}
	return c, nil
}

// sortedLocked returns the records ordered by key.  Caller holds mu.
func (c *collection[K, V]) sortedLocked() []V {
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.items[k])
	}
	return out
}

// flushLocked writes the collection to disk.  Caller holds mu for writing.
func (c *collection[K, V]) flushLocked() error {
	if c.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(document[V]{NextID: c.nextID, Records: c.sortedLocked()}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *collection[K, V]) get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[k]
	return v, ok
}

func (c *collection[K, V]) all() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

func (c *collection[K, V]) filter(keep func(V) bool) []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []V
	for _, v := range c.sortedLocked() {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *collection[K, V]) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// put stores v and flushes.  On a flush error the previous record (or its
// absence) is restored.
func (c *collection[K, V]) put(v V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(v)
}

func (c *collection[K, V]) putLocked(v V) error {
	k := c.key(v)
	old, existed := c.items[k]
	c.items[k] = v
	if err := c.flushLocked(); err != nil {
		if existed {
			c.items[k] = old
		} else {
			delete(c.items, k)
		}
		return err
	}
	return nil
}

// insertWithID issues the next sequence value, lets assign stamp it on v
// and stores the result.  The sequence is rolled back when the flush fails.
func (c *collection[K, V]) insertWithID(v V, assign func(V, int64) V) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	v = assign(v, c.nextID)
	if err := c.putLocked(v); err != nil {
		c.nextID--
		var zero V
		return zero, err
	}
	return v, nil
}

// insertUnique stores v unless its key is taken, in which case it returns
// false.
func (c *collection[K, V]) insertUnique(v V) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[c.key(v)]; ok {
		return false, nil
	}
	return true, c.putLocked(v)
}

func (c *collection[K, V]) remove(k K) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.items[k]
	if !ok {
		return false, nil
	}
	delete(c.items, k)
	if err := c.flushLocked(); err != nil {
		c.items[k] = old
		return true, err
	}
	return true, nil
}
