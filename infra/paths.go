package infra

import (
	"os"
	"path/filepath"
)

// DataDir returns the base directory to persist data. Defaults to ./data
func DataDir() string {
	if v := os.Getenv("CASHBOARD_DATA_DIR"); v != "" {
		return v
	}
	return "data"
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error { return os.MkdirAll(path, 0o755) }

// CanvasDir is where the file backend keeps one JSON file per key.
func CanvasDir(base string) string { return filepath.Join(base, "canvases") }

// ImportDir is watched for workflow files to import.
func ImportDir(base string) string { return filepath.Join(base, "imports") }

// ExportDir receives exported workflow documents.
func ExportDir(base string) string { return filepath.Join(base, "exports") }

// DBPath is the SQLite database file.
func DBPath(base string) string { return filepath.Join(base, "cashboard.db") }
