package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrReleased is returned by Open once a handle has been released.
var ErrReleased = errors.New("source: file released")

// Spooler copies incoming content into private files under dir, so that
// handles stay readable after the request that carried them has ended.
type Spooler struct {
	dir string
}

// NewSpooler creates dir if needed.
func NewSpooler(dir string) (*Spooler, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("source: create spool dir: %w", err)
	}
	return &Spooler{dir: filepath.Clean(dir)}, nil
}

// Dir returns the spool directory.
func (s *Spooler) Dir() string { return s.dir }

// Spool streams r to disk and returns a handle for it. The original name is
// kept as metadata only; the file on disk is named by a fresh uuid so client
// names can never escape the spool directory. An empty declaredType is
// replaced by a sniffed one.
func (s *Spooler) Spool(r io.Reader, name, declaredType string) (*DiskFile, error) {
	destPath := filepath.Clean(filepath.Join(s.dir, uuid.New().String()+".blob"))
	if !strings.HasPrefix(destPath, s.dir+string(os.PathSeparator)) {
		return nil, fmt.Errorf("source: invalid spool path %q", destPath)
	}

	tmpFile, err := os.CreateTemp(s.dir, "spool-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("source: create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Peek the head for type sniffing without consuming it.
	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("source: read head: %w", err)
	}
	contentType := strings.TrimSpace(declaredType)
	if contentType == "" {
		contentType = Sniff(head)
	}

	bw := bufio.NewWriter(tmpFile)
	size, err := io.Copy(bw, br)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("source: stream to disk: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("source: flush: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("source: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("source: rename: %w", err)
	}

	if name != "" {
		name = filepath.Base(name)
	}
	return &DiskFile{
		name:        name,
		contentType: contentType,
		size:        size,
		path:        destPath,
	}, nil
}

// DiskFile is a spooled File. Release deletes the backing file.
type DiskFile struct {
	name        string
	contentType string
	size        int64

	mu       sync.Mutex
	path     string
	released bool
}

func (f *DiskFile) Name() string        { return f.name }
func (f *DiskFile) Size() int64         { return f.size }
func (f *DiskFile) ContentType() string { return f.contentType }

// Path returns the location of the backing file.
func (f *DiskFile) Path() string { return f.path }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil, ErrReleased
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", f.name, err)
	}
	return fh, nil
}

// Release removes the backing file. Calling it twice is harmless.
func (f *DiskFile) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil
	}
	f.released = true
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("source: remove %s: %w", f.path, err)
	}
	return nil
}
