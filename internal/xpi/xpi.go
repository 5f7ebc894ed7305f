// Package xpi reads and writes packaged extensions (zip archives).
//
// Entries that fail to decompress are reported once and then treated as if
// they were not in the package; the rest of the archive stays usable.
package xpi

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrNotFound  = errors.New("xpi: entry not found")
	ErrReadOnly  = errors.New("xpi: package is read-only")
	ErrWriteOnly = errors.New("xpi: package is write-only")
)

// CorruptEntryError is returned by Read when an entry cannot be decompressed.
type CorruptEntryError struct {
	Name string
	Err  error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("xpi: corrupt entry %q: %v", e.Name, e.Err)
}

func (e *CorruptEntryError) Unwrap() error {
	return e.Err
}

// EntryInfo describes one archive member.
type EntryInfo struct {
	Name      string `json:"name"`
	Size      uint64 `json:"size"`
	NameLower string `json:"name_lower"`
	Extension string `json:"extension"`
}

type Package struct {
	// Filename is the package's name; Extension its last dot-separated part.
	Filename  string
	Extension string

	mu       sync.Mutex
	zr       *zip.Reader
	zw       *zip.Writer
	closer   io.Closer
	entries  map[string]*zip.File
	broken   map[string]struct{}
	contents map[string]EntryInfo
	cache    map[string][]byte

	decompressions int
}

func newPackage(name string) *Package {
	return &Package{
		Filename:  name,
		Extension: extensionOf(name),
		broken:    map[string]struct{}{},
		cache:     map[string][]byte{},
	}
}

func extensionOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Open opens the package at path for reading.
func Open(path string) (*Package, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("xpi: open %s: %w", path, err)
	}
	p := newPackage(path)
	p.setReader(&rc.Reader)
	p.closer = rc
	return p, nil
}

// NewReader reads a package from r, which holds size bytes.
func NewReader(r io.ReaderAt, size int64, name string) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("xpi: read %s: %w", name, err)
	}
	p := newPackage(name)
	p.setReader(zr)
	return p, nil
}

// Create starts a new package written to w. Close must be called to flush
// the archive directory.
func Create(w io.Writer, name string) *Package {
	p := newPackage(name)
	p.zw = zip.NewWriter(w)
	p.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return p
}

func (p *Package) setReader(zr *zip.Reader) {
	p.zr = zr
	p.entries = make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := p.entries[f.Name]; !dup {
			p.entries[f.Name] = f
		}
	}
}

func (p *Package) isBroken(name string) bool {
	_, ok := p.broken[name]
	return ok
}

// List returns entry names in archive order, skipping broken entries.
func (p *Package) List() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.zr == nil {
		return nil
	}
	names := make([]string, 0, len(p.zr.File))
	for _, f := range p.zr.File {
		if p.entries[f.Name] != f || p.isBroken(f.Name) {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

func (p *Package) Contains(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isBroken(name) {
		return false
	}
	_, ok := p.entries[name]
	return ok
}

// Metadata describes every readable entry. The result is cached until an
// entry breaks; callers must not modify it.
func (p *Package) Metadata() map[string]EntryInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metadata()
}

func (p *Package) metadata() map[string]EntryInfo {
	if p.contents != nil {
		return p.contents
	}

	lower := cases.Lower(language.Und)
	out := make(map[string]EntryInfo, len(p.entries))
	for name, f := range p.entries {
		if p.isBroken(name) {
			continue
		}
		nameLower := lower.String(name)
		out[name] = EntryInfo{
			Name:      name,
			Size:      f.UncompressedSize64,
			NameLower: nameLower,
			Extension: extensionOf(nameLower),
		}
	}
	p.contents = out
	return out
}

// Info returns the metadata of a single entry.
func (p *Package) Info(name string) (EntryInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.metadata()[name]
	return info, ok
}

// Read returns the decompressed contents of an entry. Successful reads are
// cached. A decompression failure yields *CorruptEntryError and the entry
// disappears from List, Contains and Metadata from then on.
func (p *Package) Read(name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.zr == nil {
		return nil, ErrWriteOnly
	}
	if data, ok := p.cache[name]; ok {
		return data, nil
	}
	f, ok := p.entries[name]
	if !ok || p.isBroken(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	p.decompressions++
	data, err := readEntry(f)
	if err != nil {
		p.broken[name] = struct{}{}
		p.contents = nil
		return nil, &CorruptEntryError{Name: name, Err: err}
	}
	p.cache[name] = data
	return data, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Write adds an entry holding data.
func (p *Package) Write(name string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.zw == nil {
		return ErrReadOnly
	}
	w, err := p.zw.Create(name)
	if err != nil {
		return fmt.Errorf("xpi: create %s: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile adds the file at path as entry name. An empty path means name.
func (p *Package) WriteFile(name, path string) error {
	if path == "" {
		path = name
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.zw == nil {
		return ErrReadOnly
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("xpi: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("xpi: %w", err)
	}
	hdr, err := zip.FileInfoHeader(st)
	if err != nil {
		return fmt.Errorf("xpi: %w", err)
	}
	hdr.Name = filepath.ToSlash(name)
	hdr.Method = zip.Deflate

	w, err := p.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("xpi: create %s: %w", name, err)
	}
	_, err = io.Copy(w, f)
	return err
}

func (p *Package) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.zw != nil {
		err = p.zw.Close()
	}
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}
