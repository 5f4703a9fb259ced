// Package tr1pd implements the core of a tamper-evident, append-only,
// hash-chained and dual-signed ledger: block model, signing/verify rings,
// content-addressed storage, a spec-pointer resolver, the write engine,
// the control-socket protocol, and the fsck chain walker.
package tr1pd

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// KeySize is the size in bytes of a public key, and of a BlockPointer.
const KeySize = 32

// SecretKeySize is the size in bytes of a secret (Ed25519 expanded) key.
const SecretKeySize = 64

// SignatureSize is the size in bytes of a detached signature.
const SignatureSize = 64

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [KeySize]byte

// SecretKey is a 64-byte Ed25519 expanded secret key (seed || public key).
type SecretKey [SecretKeySize]byte

// Signature is a 64-byte detached Ed25519 signature.
type Signature [SignatureSize]byte

// GenerateKeypair returns a fresh Ed25519 keypair.
func GenerateKeypair() (PublicKey, SecretKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, SecretKey{}, fmt.Errorf("generate keypair: %w", err)
	}
	var pk PublicKey
	var sk SecretKey
	copy(pk[:], pub)
	copy(sk[:], priv)
	return pk, sk, nil
}

// Sign produces a detached Ed25519 signature of msg under sk.
func Sign(msg []byte, sk SecretKey) Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(sk[:]), msg)
	var out Signature
	copy(out[:], sig)
	return out
}

// Verify checks a detached signature against msg under pk.
func Verify(sig Signature, msg []byte, pk PublicKey) error {
	if !ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// Wipe zeroes a secret key in place. Callers that stop needing a secret
// key (session key retirement at rekey finalization) must call this so
// the bytes don't linger in memory.
func (sk *SecretKey) Wipe() {
	for i := range sk {
		sk[i] = 0
	}
}

// Signable is anything whose canonical byte encoding can be hashed or
// signed. Block and InnerBlock implement it.
type Signable interface {
	Canonical() []byte
}

// Signed pairs a Signable payload with a detached signature over its
// canonical encoding.
type Signed[T Signable] struct {
	Payload   T
	Signature Signature
}

// Verify checks Signature against Payload.Canonical() under pk.
func (s Signed[T]) Verify(pk PublicKey) error {
	return Verify(s.Signature, s.Payload.Canonical(), pk)
}

// BlockPointer is the 32-byte SHA3-256 content hash of a block's canonical
// encoding. It is the chain-linkage and storage key for that block.
type BlockPointer [KeySize]byte

// EmptyPointer is the sentinel meaning "no predecessor" — the prev of the
// very first Init block in a ledger.
var EmptyPointer BlockPointer

// HashPointer computes the BlockPointer of a buffer: SHA3-256(buf).
func HashPointer(buf []byte) BlockPointer {
	return BlockPointer(sha3.Sum256(buf))
}

// Verifies reports whether SHA3_256(b) == p, i.e. whether b is the
// canonical encoding this pointer names.
func (p BlockPointer) Verifies(b []byte) bool {
	return p == HashPointer(b)
}

// IsEmpty reports whether p is the all-zero sentinel.
func (p BlockPointer) IsEmpty() bool {
	return p == EmptyPointer
}

// Equal reports byte-wise equality.
func (p BlockPointer) Equal(other BlockPointer) bool {
	return p == other
}

// Less defines a total order over pointers by raw byte comparison. Used
// only for deterministic sorting (e.g. ListAnchors-like operations); the
// ledger itself has no intrinsic pointer ordering requirement.
func (p BlockPointer) Less(other BlockPointer) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

// String renders the pointer as lowercase hex.
func (p BlockPointer) String() string {
	return hex.EncodeToString(p[:])
}

// ParseBlockPointer decodes 64 hex digits into a BlockPointer.
func ParseBlockPointer(s string) (BlockPointer, error) {
	var p BlockPointer
	if len(s) != KeySize*2 {
		return p, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidBlockPointer, KeySize*2, len(s))
	}
	n, err := hex.Decode(p[:], []byte(s))
	if err != nil {
		return BlockPointer{}, fmt.Errorf("%w: %v", ErrInvalidBlockPointer, err)
	}
	if n != KeySize {
		return BlockPointer{}, ErrInvalidBlockPointer
	}
	return p, nil
}

// LenToUint16BE returns the two-byte big-endian encoding of n, failing
// with ErrBlockTooLarge if n does not fit in a uint16.
func LenToUint16BE(n int) ([2]byte, error) {
	var out [2]byte
	if n < 0 || n >= 1<<16 {
		return out, ErrBlockTooLarge
	}
	out[0] = byte(n >> 8)
	out[1] = byte(n)
	return out, nil
}
