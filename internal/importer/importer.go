package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFileType is returned for files no reader handles.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Reader converts an uploaded file into a Workbook.
type Reader interface {
	Read(r io.Reader, sheetName string) (*Workbook, error)
	Extension() string
}

// Registry holds readers keyed by lower-case file extension.
type Registry struct {
	readers map[string]Reader
}

// FileInfo describes a spreadsheet waiting in the inbox.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register adds a reader. Panics on duplicate extension.
func (r *Registry) Register(rd Reader) {
	key := strings.ToLower(rd.Extension())
	if _, ok := r.readers[key]; ok {
		panic("duplicate reader extension: " + key)
	}
	r.readers[key] = rd
}

// Get returns the reader for ext (".csv", ".xlsx"), or nil.
func (r *Registry) Get(ext string) Reader {
	return r.readers[strings.ToLower(ext)]
}

// Supports reports whether fileName has a registered extension.
func (r *Registry) Supports(fileName string) bool {
	return r.Get(filepath.Ext(fileName)) != nil
}

// ReadFile picks the reader by extension and parses in.
func (r *Registry) ReadFile(fileName string, in io.Reader) (*Workbook, error) {
	ext := filepath.Ext(fileName)
	rd := r.Get(ext)
	if rd == nil {
		return nil, fmt.Errorf("%s: %w", fileName, ErrUnsupportedFileType)
	}
	sheetName := strings.TrimSuffix(filepath.Base(fileName), ext)
	return rd.Read(in, sheetName)
}

// DefaultRegistry returns a registry with the CSV and XLSX readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVReader{})
	r.Register(&XLSXReader{})
	return r
}

// InboxDir is the workspace subdirectory watched for uploads.
const InboxDir = "inbox"

// ProcessedDir receives files once their batch is committed.
const ProcessedDir = "inbox/processed"

// Scan returns supported spreadsheets in <root>/inbox/, sorted by name.
func (r *Registry) Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, InboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !r.Supports(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from inbox/ to inbox/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, InboxDir, fileName)
	dstDir := filepath.Join(root, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
