package cache

import (
	"bytes"
	"context"
	"fmt"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/vmihailenco/msgpack/v5"
)

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// Fetch returns the cached value for key, loading and storing it on a miss.
// Entries are never invalidated here: a new API version reads another Namespace.
// Concurrent misses may load twice, the last write wins.
func Fetch[T any](ctx context.Context, store Store, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var res T
	found, buf, err := store.Get(key)
	if err != nil {
		return res, fmt.Errorf("error fetching %s from cache: %w", key, err)
	}
	if found {
		if err := decode(buf, &res); err == nil {
			return res, nil
		}
		// an undecodable entry is treated as a miss and overwritten below
		res = *new(T)
	}
	res, err = load(ctx)
	if err != nil {
		return res, err
	}
	buf, err = encode(res)
	if err != nil {
		return res, fmt.Errorf("error encoding %s for cache: %w", key, err)
	}
	if err := store.Set(key, buf); err != nil {
		return res, fmt.Errorf("error setting key %s in cache: %w", key, err)
	}
	return res, nil
}

// Namespace returns a key prefix derived from the API version and any extra
// parts, such as the API url, so that a new version reads fresh entries.
func Namespace(version string, parts ...string) string {
	return "vst:" + util.Hash(append([]string{version}, parts...)...) + ":"
}
