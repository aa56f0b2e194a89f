package memory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

// Cache maps sub-query text to the bundle retrieved for it and remembers
// insertion order. Overwriting a key keeps its position.
type Cache struct {
	keys    []string
	entries map[string]model.RetrievedBundle
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]model.RetrievedBundle)}
}

func (c *Cache) Len() int { return len(c.keys) }

func (c *Cache) Get(key string) (model.RetrievedBundle, bool) {
	b, ok := c.entries[key]
	return b, ok
}

// Put inserts or replaces the bundle stored under key.
func (c *Cache) Put(key string, b model.RetrievedBundle) {
	if _, ok := c.entries[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.entries[key] = b
}

// Keys returns the keys oldest first.
func (c *Cache) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Trim evicts the oldest entries until at most max remain.
func (c *Cache) Trim(max int) int {
	if max < 0 {
		max = 0
	}
	excess := len(c.keys) - max
	if excess <= 0 {
		return 0
	}
	for _, k := range c.keys[:excess] {
		delete(c.entries, k)
	}
	c.keys = append([]string(nil), c.keys[excess:]...)
	return excess
}

// MarshalJSON writes a JSON object whose members follow insertion order.
func (c *Cache) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the member order of the document.
func (c *Cache) UnmarshalJSON(data []byte) error {
	fresh := NewCache()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = *fresh
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cache: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("cache: expected key, got %v", tok)
		}
		var b model.RetrievedBundle
		if err := dec.Decode(&b); err != nil {
			return fmt.Errorf("cache entry %q: %w", key, err)
		}
		fresh.Put(key, b)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = *fresh
	return nil
}

type cacheEntry struct {
	Key    string                `msgpack:"key" json:"key"`
	Bundle model.RetrievedBundle `msgpack:"bundle" json:"bundle"`
}

// EncodeMsgpack implements msgpack.CustomEncoder as an ordered list of
// key/bundle pairs.
func (c *Cache) EncodeMsgpack(enc *msgpack.Encoder) error {
	entries := make([]cacheEntry, len(c.keys))
	for i, k := range c.keys {
		entries[i] = cacheEntry{Key: k, Bundle: c.entries[k]}
	}
	return enc.Encode(entries)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (c *Cache) DecodeMsgpack(dec *msgpack.Decoder) error {
	var entries []cacheEntry
	if err := dec.Decode(&entries); err != nil {
		return err
	}
	fresh := NewCache()
	for _, e := range entries {
		fresh.Put(e.Key, e.Bundle)
	}
	*c = *fresh
	return nil
}
