package parser

import "errors"

// Options controls how a tabular file is turned into records.
type Options struct {
	// Encoding names the text encoding of delimited files. Empty means latin1.
	Encoding string
	// Delimiter for delimited files. If 0, chosen from the file extension.
	Delimiter rune
	// Sheet selects a workbook sheet by name. Empty means the first sheet.
	Sheet string
}

// Reader reads one tabular file format into raw records. The first record is
// the header row.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) ([][]string, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on filename and returns the file's records.
// Files with an unknown extension are read as delimited text.
func ReadFile(path string, opt Options) ([][]string, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return delimitedReader{}.Read(path, opt)
}

func init() {
	Register(delimitedReader{})
	Register(workbookReader{})
}

var (
	// ErrUnsupportedEncoding indicates the encoding name is not known.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrInvalidEncoding indicates the bytes are not valid in the requested encoding.
	ErrInvalidEncoding = errors.New("invalid byte sequence for encoding")
)
