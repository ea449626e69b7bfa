// Package storage defines the data-folder file-system abstraction.
package storage

import "github.com/starford/wormbox/internal/models"

// Provider is the interface for data-folder file operations.
type Provider interface {
	// List returns metadata for every file directly in the folder whose
	// name ends with suffix, sorted by path.
	List(suffix string) ([]models.DataFile, error)
	// Exists reports whether path (relative to the folder) is a regular file.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path (relative to the folder).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the folder).
	Write(path string, content []byte) error
	// Root returns the absolute folder path.
	Root() string
}
