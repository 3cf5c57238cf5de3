package common

import (
	"errors"
	"strings"
	"testing"
)

func TestReaderFieldRoundTrip(t *testing.T) {
	var addr [20]byte
	addr[0], addr[19] = 0xAB, 0xCD

	buf := AppendU8(nil, 7)
	buf = AppendU32(buf, 123_456)
	buf = AppendU64(buf, 987_654_321)
	buf = AppendBool(buf, true)
	buf = AppendBytes20(buf, addr)
	buf = AppendString(buf, "did:pln:alice")

	r := NewReader(buf)
	if v, err := r.U8(); err != nil || v != 7 {
		t.Fatalf("u8 = %d, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 123_456 {
		t.Fatalf("u32 = %d, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 987_654_321 {
		t.Fatalf("u64 = %d, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("bool = %t, %v", v, err)
	}
	if v, err := r.Bytes20(); err != nil || v != addr {
		t.Fatalf("bytes20 = %x, %v", v, err)
	}
	if v, err := r.String(); err != nil || v != "did:pln:alice" {
		t.Fatalf("string = %q, %v", v, err)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.U64(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestReaderTrailingBytes(t *testing.T) {
	r := NewReader(AppendU8(nil, 1))
	if _, err := r.U8(); err != nil {
		t.Fatalf("u8: %v", err)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	r = NewReader(append(AppendU8(nil, 1), 0x00))
	if _, err := r.U8(); err != nil {
		t.Fatalf("u8: %v", err)
	}
	if err := r.Finish(); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestReaderStrictBool(t *testing.T) {
	r := NewReader([]byte{0x02})
	if _, err := r.Bool(); !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("err = %v, want ErrInvalidBool", err)
	}
}

func TestReaderStringTooLong(t *testing.T) {
	buf := AppendU32(nil, maxStringLen+1)
	buf = append(buf, strings.Repeat("a", 8)...)
	r := NewReader(buf)
	if _, err := r.String(); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("err = %v, want ErrStringTooLong", err)
	}
}

func TestReaderStringLengthBeyondBuffer(t *testing.T) {
	buf := AppendU32(nil, 16)
	buf = append(buf, "short"...)
	r := NewReader(buf)
	if _, err := r.String(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestGuard(t *testing.T) {
	pauses := StaticPauses{"lending": true}
	if err := Guard(pauses, "lending"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("err = %v, want ErrModulePaused", err)
	}
	if err := Guard(pauses, "userreg"); err != nil {
		t.Fatalf("unpaused module blocked: %v", err)
	}
	if err := Guard(nil, "lending"); err != nil {
		t.Fatalf("nil pause view blocked: %v", err)
	}
}
