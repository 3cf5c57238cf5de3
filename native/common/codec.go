package common

import (
	"encoding/binary"
	"errors"
)

// Instruction buffers use a fixed little-endian layout: one-byte tags,
// u32/u64 integers, single-byte booleans, raw 20-byte addresses and
// u32-length-prefixed UTF-8 strings. The layout is versioned implicitly by
// the outer instruction tag space; any change to a field shape requires a new
// tag rather than a silent reinterpretation of old buffers.

var (
	// ErrTruncated marks an instruction buffer shorter than its declared shape.
	ErrTruncated = errors.New("instruction buffer truncated")
	// ErrTrailingBytes marks unconsumed bytes after a fully decoded instruction.
	ErrTrailingBytes = errors.New("instruction buffer has trailing bytes")
	// ErrInvalidBool marks a boolean byte that is neither 0 nor 1.
	ErrInvalidBool = errors.New("boolean field must be 0 or 1")
)

const maxStringLen = 1 << 16

// ErrStringTooLong bounds string fields so a hostile buffer cannot force a
// large allocation.
var ErrStringTooLong = errors.New("string field exceeds maximum length")

// Reader walks an instruction buffer field by field.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrTruncated
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

func (r *Reader) Bytes20() ([20]byte, error) {
	var out [20]byte
	b, err := r.take(20)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (r *Reader) String() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", ErrStringTooLong
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Finish fails when the buffer holds more bytes than the decoded shape.
func (r *Reader) Finish() error {
	if r.remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

// --- Append helpers for building instruction buffers ---

func AppendU8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func AppendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func AppendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func AppendBytes20(buf []byte, v [20]byte) []byte {
	return append(buf, v[:]...)
}

func AppendString(buf []byte, s string) []byte {
	buf = AppendU32(buf, uint32(len(s)))
	return append(buf, s...)
}
