package lending

import (
	"errors"
	"testing"
)

func TestPoolRecordRoundTrip(t *testing.T) {
	pool := &LendingPool{
		TotalDeposits:   10_000,
		TotalBorrows:    2_500,
		InterestRateBps: 500,
		NextLoanID:      7,
	}
	data, err := EncodePool(pool)
	if err != nil {
		t.Fatalf("encode pool: %v", err)
	}
	got, ok, err := DecodePool(data)
	if err != nil {
		t.Fatalf("decode pool: %v", err)
	}
	if !ok {
		t.Fatal("decoded pool reported as missing")
	}
	if *got != *pool {
		t.Fatalf("round trip mismatch: %+v != %+v", got, pool)
	}
}

func TestDecodePoolEmptyBuffer(t *testing.T) {
	pool, ok, err := DecodePool(nil)
	if err != nil {
		t.Fatalf("decode pool: %v", err)
	}
	if ok || pool != nil {
		t.Fatal("empty buffer should decode as uninitialised")
	}
}

func TestDecodePoolGarbage(t *testing.T) {
	if _, _, err := DecodePool([]byte{0xFF, 0x01, 0x02}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
}

func TestLoanRecordRoundTrip(t *testing.T) {
	loan := &Loan{
		ID:              3,
		Principal:       1_000,
		Collateral:      1_500,
		StartTime:       testNow,
		Duration:        DefaultLoanDuration,
		InterestRateBps: 500,
		Status:          LoanActive,
	}
	copy(loan.Borrower[:], testAddr(0x03).Bytes())

	data, err := EncodeLoan(loan)
	if err != nil {
		t.Fatalf("encode loan: %v", err)
	}
	got, ok, err := DecodeLoan(data)
	if err != nil {
		t.Fatalf("decode loan: %v", err)
	}
	if !ok {
		t.Fatal("decoded loan reported as missing")
	}
	if *got != *loan {
		t.Fatalf("round trip mismatch: %+v != %+v", got, loan)
	}
}

func TestEncodeLoanRejectsInvalidStatus(t *testing.T) {
	loan := &Loan{ID: 1, Status: LoanStatus(9)}
	if _, err := EncodeLoan(loan); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
}

func TestEncodeLoanRejectsNegativeTimestamps(t *testing.T) {
	loan := &Loan{ID: 1, StartTime: -1, Status: LoanActive}
	if _, err := EncodeLoan(loan); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
}
