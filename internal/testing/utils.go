// Package testing provides utilities and helpers shared by the package tests.
package testing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/config"
)

// PDFBytes returns a minimal byte stream that passes PDF sniffing. body is
// written as a PDF comment so fakes can recognise the file.
func PDFBytes(body string) []byte {
	return []byte("%PDF-1.4\n%" + body + "\n%%EOF\n")
}

// ZipMember is one entry of an archive built by BuildZip. A nil Data writes
// an empty member.
type ZipMember struct {
	Name string
	Data []byte
}

// BuildZip writes members, in order, into an in-memory zip archive.
func BuildZip(t *testing.T, members ...ZipMember) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		require.NoError(t, err, "Failed to create zip member %s", m.Name)
		if m.Data != nil {
			_, err = w.Write(m.Data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return &buf
}

// WriteFile writes data to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// NewTestConfig returns the default configuration rooted in a fresh temp
// directory, with two job workers and no job retention sweep.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.Jobs.Workers = 2
	cfg.Jobs.Retention = 0
	return cfg
}
