package sloth

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// CountSuffix is appended to a namespace to form its count key.
const CountSuffix = "_COUNT"

// Cache is the shared key/value storage for page cursors and counts. A
// missing key is reported by ok == false, never by an error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Swapper is implemented by caches that can replace a value only if it still
// equals old. A nil old means the key must be absent.
type Swapper interface {
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
}

func CountKey(namespace string) string {
	return namespace + CountSuffix
}

// Clear drops the cursor map and the count of namespace. Every code path that
// changes the collection scanned under namespace must call it.
func Clear(ctx context.Context, cache Cache, namespace string) error {
	if err := cache.Delete(ctx, namespace, CountKey(namespace)); err != nil {
		return storeErr("cache delete", err)
	}

	return nil
}

// PageCursors maps a page number to the cursor that starts that page.
type PageCursors map[int]string

func (pc PageCursors) Clone() PageCursors {
	if pc == nil {
		return PageCursors{}
	}

	return maps.Clone(pc)
}

func (pc PageCursors) Equal(other PageCursors) bool {
	return maps.Equal(pc, other)
}

func (pc PageCursors) encode() ([]byte, error) {
	raw := make(map[string]string, len(pc))
	for page, cursor := range pc {
		raw[strconv.Itoa(page)] = cursor
	}

	return json.Marshal(raw)
}

func decodePageCursors(data []byte) (PageCursors, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page cursors: %w", err)
	}

	pc := make(PageCursors, len(raw))
	for key, cursor := range raw {
		page, err := strconv.Atoi(key)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page number '%s' in page cursors", key)
		}
		pc[page] = cursor
	}

	return pc, nil
}

func encodeCount(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}

func decodeCount(data []byte) (int64, error) {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("failed to unmarshal count: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}

	return n, nil
}
