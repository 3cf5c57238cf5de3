package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the human-readable part of a bech32 rendered address.
type AddressPrefix string

// PLNPrefix is the prefix shared by every peerlend address, whether it backs a
// user keypair or a program-derived record.
const PLNPrefix AddressPrefix = "pln"

// AddressLength is the raw byte length of every peerlend address.
const AddressLength = 20

// Address represents a 20-byte peerlend address with a bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != AddressLength {
		panic("address must be 20 bytes long")
	}
	return Address{prefix: prefix, bytes: b}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// IsZero reports whether the address carries no bytes or only zero bytes.
func (a Address) IsZero() bool {
	if len(a.bytes) == 0 {
		return true
	}
	for _, b := range a.bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

// Equal compares the raw bytes of two addresses, ignoring the prefix.
func (a Address) Equal(other Address) bool {
	if len(a.bytes) != AddressLength || len(other.bytes) != AddressLength {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long (got %d)", AddressLength, len(conv))
	}
	return NewAddress(AddressPrefix(prefix), conv), nil
}

// ProgramAddress derives the program identity for a named network. Record
// accounts are owned by this address and derived relative to it.
func ProgramAddress(network string) Address {
	digest := crypto.Keccak256(append([]byte("program:"), network...))
	return NewAddress(PLNPrefix, digest[len(digest)-AddressLength:])
}

// DeriveAddress computes a program-derived address from a domain tag, a
// numeric seed and the owning program's identity. The derivation is a plain
// keccak256 over the concatenated inputs truncated to 20 bytes, so any party
// holding the same inputs arrives at the same address.
func DeriveAddress(tag string, seed uint64, programID Address) Address {
	var seedLE [8]byte
	binary.LittleEndian.PutUint64(seedLE[:], seed)
	buf := make([]byte, 0, len(tag)+8+AddressLength)
	buf = append(buf, tag...)
	buf = append(buf, seedLE[:]...)
	buf = append(buf, programID.Bytes()...)
	digest := crypto.Keccak256(buf)
	return NewAddress(PLNPrefix, digest[len(digest)-AddressLength:])
}

// DeriveChildAddress computes a record address scoped under a parent record,
// e.g. the loan accounts hanging off a lending pool.
func DeriveChildAddress(tag string, parent Address, index uint64) Address {
	var indexLE [8]byte
	binary.LittleEndian.PutUint64(indexLE[:], index)
	buf := make([]byte, 0, len(tag)+AddressLength+8)
	buf = append(buf, tag...)
	buf = append(buf, parent.Bytes()...)
	buf = append(buf, indexLE[:]...)
	digest := crypto.Keccak256(buf)
	return NewAddress(PLNPrefix, digest[len(digest)-AddressLength:])
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return NewAddress(PLNPrefix, addrBytes)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
