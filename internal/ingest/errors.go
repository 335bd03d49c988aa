package ingest

import (
	"errors"
	"fmt"

	"github.com/finsight-dev/finsight/internal/importer"
)

// ErrorKind classifies ingestion failures.
type ErrorKind string

const (
	KindUnsupportedFileType    ErrorKind = "UnsupportedFileType"
	KindEmptyOrUnreadableFile  ErrorKind = "EmptyOrUnreadableFile"
	KindNoQualifyingHeader     ErrorKind = "NoQualifyingHeaderFound"
	KindDuplicateAccountNumber ErrorKind = "DuplicateAccountNumber"
	KindMissingRequiredField   ErrorKind = "MissingRequiredField"
)

var (
	// ErrUnsupportedFileType is returned for anything other than .csv or .xlsx.
	ErrUnsupportedFileType = importer.ErrUnsupportedFileType
	// ErrEmptyOrUnreadableFile covers parse failures and files without data.
	ErrEmptyOrUnreadableFile = errors.New("file is empty or could not be read")
	// ErrPreviewClosed is returned when committing a discarded or already committed preview.
	ErrPreviewClosed = errors.New("preview already committed or discarded")
)

// FileError aborts a whole batch; no rows are accepted.
type FileError struct {
	Kind     ErrorKind
	FileName string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.FileName, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Row is 0 for failures detected before the file is opened, 1 otherwise.
func (e *FileError) Row() int {
	if e.Kind == KindUnsupportedFileType {
		return 0
	}
	return 1
}

// UploadError is a row-level problem; the rest of the batch still imports.
type UploadError struct {
	Row     int // 1-based, counted from the top of the sheet
	Kind    ErrorKind
	Message string
	Context string
}

func (e UploadError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
