// Package storage defines the uploaded-document file store abstraction.
package storage

import "io"

// Provider is the interface for stored document files. Names are plain
// filenames with no path components; implementations must reject
// anything that would escape the uploads root.
type Provider interface {
	// List returns the names of every stored file.
	List() ([]string, error)
	// Save streams src into a new file called name and returns the
	// number of bytes written.
	Save(name string, src io.Reader) (int64, error)
	// Delete removes the stored file called name.
	Delete(name string) error
	// Path resolves name to an absolute path for serving.
	Path(name string) (string, error)
	// Checksum returns the hex SHA-256 digest of the stored file.
	Checksum(name string) (string, error)
}
