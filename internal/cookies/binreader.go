package cookies

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/warpdl/warpcookie/pkg/logger"
)

var errInvalidUTF8 = errors.New("invalid UTF-8 string")

// BinaryReader is a bounds-checked cursor over a byte slice. Reads past the
// end fail with ErrParser instead of panicking.
type BinaryReader struct {
	data   []byte
	cursor int
	log    logger.Logger
}

// NewBinaryReader returns a reader positioned at the start of data. Skipped
// bytes are reported to log at debug level.
func NewBinaryReader(data []byte, log logger.Logger) *BinaryReader {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BinaryReader{data: data, log: log}
}

// Cursor returns the current read offset.
func (r *BinaryReader) Cursor() int {
	return r.cursor
}

// Len returns the size of the underlying data.
func (r *BinaryReader) Len() int {
	return len(r.data)
}

// ReadBytes consumes n bytes.
func (r *BinaryReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid read of %d bytes", ErrParser, n)
	}
	end := r.cursor + n
	if end > len(r.data) {
		return nil, fmt.Errorf("%w: reached end of input", ErrParser)
	}
	b := r.data[r.cursor:end]
	r.cursor = end
	return b, nil
}

// Expect consumes len(want) bytes and fails unless they equal want.
func (r *BinaryReader) Expect(want []byte, what string) error {
	got, err := r.ReadBytes(len(want))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: unexpected value: %q != %q (%s)", ErrParser, got, want, what)
	}
	return nil
}

// ReadUint32 consumes a 4-byte unsigned integer.
func (r *BinaryReader) ReadUint32(bigEndian bool) (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	if bigEndian {
		return binary.BigEndian.Uint32(b), nil
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadFloat64 consumes an 8-byte IEEE-754 double.
func (r *BinaryReader) ReadFloat64(bigEndian bool) (float64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	if bigEndian {
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadCString consumes a NUL-terminated UTF-8 string, terminator included.
func (r *BinaryReader) ReadCString() (string, error) {
	idx := bytes.IndexByte(r.data[r.cursor:], 0)
	if idx < 0 {
		r.cursor = len(r.data)
		return "", fmt.Errorf("%w: reached end of input", ErrParser)
	}
	b := r.data[r.cursor : r.cursor+idx]
	r.cursor += idx + 1
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

// Skip consumes n bytes of data whose meaning is unknown. Skipping backwards
// is an error.
func (r *BinaryReader) Skip(n int, what string) error {
	if n < 0 {
		return fmt.Errorf("%w: invalid skip of %d bytes", ErrParser, n)
	}
	if n == 0 {
		return nil
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return err
	}
	r.log.Debug("skipping %d bytes (%s): %q", n, what, b)
	return nil
}

// SkipTo advances the cursor to offset.
func (r *BinaryReader) SkipTo(offset int, what string) error {
	return r.Skip(offset-r.cursor, what)
}

// SkipToEnd advances the cursor to the end of the data.
func (r *BinaryReader) SkipToEnd(what string) error {
	return r.SkipTo(len(r.data), what)
}
