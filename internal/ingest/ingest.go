// Package ingest stores uploaded PDFs under fresh document ids. It accepts
// single files, zip archives and local glob patterns.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
)

const (
	pdfMIME      = "application/pdf"
	docIDLength  = 12
	sniffLength  = 3072
	defaultLimit = 256 << 20
	defaultMax   = 200
)

// Document is a PDF stored under the docs directory.
type Document struct {
	DocID    string
	Path     string
	OrigName string
}

// Ingester writes accepted PDFs to docs/{docId}.pdf.
type Ingester struct {
	docsDir       string
	tmpDir        string
	maxPDFsPerZip int
	maxBytes      int64
	log           logger.Logger
}

// NewIngester creates an Ingester. Archives are spooled under tmpDir.
func NewIngester(docsDir, tmpDir string, maxPDFsPerZip int, maxBytes int64, log logger.Logger) (*Ingester, error) {
	for _, dir := range []string{docsDir, tmpDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if maxPDFsPerZip <= 0 {
		maxPDFsPerZip = defaultMax
	}
	if maxBytes <= 0 {
		maxBytes = defaultLimit
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Ingester{
		docsDir:       docsDir,
		tmpDir:        tmpDir,
		maxPDFsPerZip: maxPDFsPerZip,
		maxBytes:      maxBytes,
		log:           log.With("component", "ingest"),
	}, nil
}

// NewDocID returns 12 hex characters of a random uuid.
func NewDocID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])[:docIDLength]
}

// IsPDF reports whether data looks like a PDF, by magic bytes or by content
// sniffing.
func IsPDF(data []byte) bool {
	if len(data) < 5 {
		return false
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return true
	}
	head := data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	return mimetype.Detect(head).Is(pdfMIME)
}

// HasPDFExt reports whether name ends in ".pdf", ignoring case.
func HasPDFExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// HasZipExt reports whether name ends in ".zip", ignoring case.
func HasZipExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// SavePDF validates and stores one uploaded PDF.
func (in *Ingester) SavePDF(name string, r io.Reader) (*Document, error) {
	if !HasPDFExt(name) {
		return nil, errors.NewUploadError(name, "only PDF files are accepted")
	}
	data, err := io.ReadAll(io.LimitReader(r, in.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", name, err)
	}
	if int64(len(data)) > in.maxBytes {
		return nil, errors.NewUploadError(name, fmt.Sprintf("file exceeds %d bytes", in.maxBytes))
	}
	if !IsPDF(data) {
		return nil, errors.NewUploadError(name, "content is not a PDF")
	}
	return in.write(filepath.Base(name), data)
}

// ImportFile stores a local PDF, as the CLI does for glob matches.
func (in *Ingester) ImportFile(filePath string) (*Document, error) {
	f, err := os.Open(filePath) // #nosec G304 -- path comes from the operator's own glob
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()
	return in.SavePDF(filePath, f)
}

func (in *Ingester) write(origName string, data []byte) (*Document, error) {
	if origName == "" || origName == "." {
		origName = "file.pdf"
	}
	doc := &Document{DocID: NewDocID(), OrigName: origName}
	doc.Path = filepath.Join(in.docsDir, doc.DocID+".pdf")
	if err := os.WriteFile(doc.Path, data, 0640); err != nil {
		return nil, fmt.Errorf("storing %s: %w", origName, err)
	}
	in.log.Debug("Stored document", "docId", doc.DocID, "origName", origName, "bytes", len(data))
	return doc, nil
}

type memberKey struct {
	crc  uint32
	size uint64
}

// SaveZip spools an uploaded archive to disk and stores every PDF member.
//
// Directories, macOS resource forks and non-PDF names are skipped. At most
// maxPDFsPerZip candidate members are considered; members with the same
// CRC-32 and size as an earlier one are skipped, as is content that does
// not sniff as PDF. An archive without PDFs yields an empty list.
func (in *Ingester) SaveZip(ctx context.Context, name string, r io.Reader) ([]Document, error) {
	if !HasZipExt(name) {
		return nil, errors.NewUploadError(name, "please upload a .zip file")
	}

	batchDir, err := os.MkdirTemp(in.tmpDir, "zip_")
	if err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(batchDir); err != nil {
			in.log.Warn("Failed to remove spool directory", "dir", batchDir, "error", err)
		}
	}()

	spool := filepath.Join(batchDir, "upload.zip")
	if err := in.spool(spool, name, r); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(spool)
	if err != nil {
		return nil, errors.NewUploadError(name, "not a readable zip archive")
	}
	defer zr.Close()

	members := pdfMembers(zr.File)
	if len(members) > in.maxPDFsPerZip {
		in.log.Warn("Archive exceeds PDF limit, truncating", "archive", name, "members", len(members), "limit", in.maxPDFsPerZip)
		members = members[:in.maxPDFsPerZip]
	}

	docs := make([]Document, 0, len(members))
	seen := make(map[memberKey]struct{}, len(members))
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		key := memberKey{crc: m.CRC32, size: m.UncompressedSize64}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		data, err := in.readMember(m)
		if err != nil {
			in.log.Warn("Skipping unreadable archive member", "member", m.Name, "error", err)
			continue
		}
		if !IsPDF(data) {
			in.log.Debug("Skipping member that is not a PDF", "member", m.Name)
			continue
		}
		doc, err := in.write(path.Base(m.Name), data)
		if err != nil {
			return docs, err
		}
		docs = append(docs, *doc)
	}

	in.log.Info("Extracted archive", "archive", name, "documents", len(docs))
	return docs, nil
}

func (in *Ingester) spool(dst, name string, r io.Reader) error {
	f, err := os.Create(dst) // #nosec G304 -- dst is inside our own temp directory
	if err != nil {
		return fmt.Errorf("creating spool file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, in.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("spooling archive: %w", err)
	}
	if n > in.maxBytes {
		return errors.NewUploadError(name, fmt.Sprintf("archive exceeds %d bytes", in.maxBytes))
	}
	return nil
}

func (in *Ingester) readMember(m *zip.File) ([]byte, error) {
	if m.UncompressedSize64 > uint64(in.maxBytes) {
		return nil, fmt.Errorf("member exceeds %d bytes", in.maxBytes)
	}
	rc, err := m.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, in.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(data) != m.CRC32 {
		return nil, fmt.Errorf("checksum mismatch")
	}
	return data, nil
}

// pdfMembers keeps the archive entries that can hold an uploaded PDF.
func pdfMembers(files []*zip.File) []*zip.File {
	members := make([]*zip.File, 0, len(files))
	for _, f := range files {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if strings.Contains(f.Name, "__MACOSX/") {
			continue
		}
		base := path.Base(f.Name)
		if strings.HasPrefix(base, "._") || !HasPDFExt(base) {
			continue
		}
		members = append(members, f)
	}
	return members
}

// ExpandPatterns resolves doublestar glob patterns (plain paths match
// themselves) to the sorted, distinct PDF files they name.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !HasPDFExt(m) {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
