package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// bucket is the slice of jetstream.KeyValue that NATSKV uses.
type bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// NATSKV stores keys in a JetStream key-value bucket.
type NATSKV struct {
	kv   bucket
	conn *nats.Conn
}

// NewNATSKV wraps an existing bucket. The caller owns its connection.
func NewNATSKV(kv jetstream.KeyValue) *NATSKV { return &NATSKV{kv: kv} }

// ConnectNATS dials url, retrying per b, and opens (creating if needed)
// the named bucket.
func ConnectNATS(ctx context.Context, url, bucketName string, b Backoff) (*NATSKV, error) {
	var conn *nats.Conn
	err := retry(ctx, b, func() error {
		c, err := nats.Connect(url, nats.Name("cashboard"))
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get jetstream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: "Cashboard canvases",
		History:     1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}
	return &NATSKV{kv: kv, conn: conn}, nil
}

// Close drains the connection when NATSKV dialed it itself.
func (n *NATSKV) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(ctx, encodeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry.Value(), nil
}

func (n *NATSKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := n.kv.Put(ctx, encodeKey(key), value)
	return err
}

func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, encodeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (n *NATSKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	raw, err := n.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, k := range raw {
		key, err := decodeKey(k)
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// JetStream keys allow [A-Za-z0-9-_/=.]; '.' separates tokens, so anything
// outside [A-Za-z0-9-_/] is written as =XX.
func encodeKey(key string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('=')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

func decodeKey(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape in key %q", s)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("bad escape in key %q", s)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

var _ KV = (*NATSKV)(nil)
