package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNATS   = "nats"
)

var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendNATS}

type Options struct {
	Backend    string
	Dir        string // file backend
	SQLitePath string
	NATSURL    string
	Bucket     string
	Backoff    Backoff
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The closer releases its connection
// or database handle.
func Open(ctx context.Context, o Options) (KV, io.Closer, error) {
	switch o.Backend {
	case BackendMemory, "":
		return NewMemKV(), nopCloser{}, nil
	case BackendFile:
		kv, err := NewFileKV(o.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, nopCloser{}, nil
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(o.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		kv, err := OpenSQLite(o.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	case BackendNATS:
		kv, err := ConnectNATS(ctx, o.NATSURL, o.Bucket, o.Backoff)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", o.Backend)
}
