package tr1pd

import (
	"fmt"
	"os"
)

// Long-term identity key material lives outside the core ledger: a
// public key file and a secret key file, written with the modes §6
// specifies. Generating fresh key material and deciding whether to
// overwrite an existing one (the `init --force` CLI flag) is a thin
// concern handled by cmd/; this package only knows how to read and
// write the files themselves.

// WriteLongtermKeys writes pk to pkPath (mode 0640) and sk to skPath
// (mode 0600). It does not check for existing files; callers implementing
// `init --force` semantics do that themselves.
func WriteLongtermKeys(pkPath, skPath string, pk PublicKey, sk SecretKey) error {
	if err := os.WriteFile(pkPath, pk[:], 0640); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	if err := os.WriteFile(skPath, sk[:], 0600); err != nil {
		return fmt.Errorf("write secret key: %w", err)
	}
	return nil
}

// ReadLongtermKeys loads a long-term keypair from pkPath/skPath, failing
// ErrCorruptedKey if either file is not exactly the expected size.
func ReadLongtermKeys(pkPath, skPath string) (PublicKey, SecretKey, error) {
	pkBytes, err := os.ReadFile(pkPath)
	if err != nil {
		return PublicKey{}, SecretKey{}, fmt.Errorf("read public key: %w", err)
	}
	if len(pkBytes) != KeySize {
		return PublicKey{}, SecretKey{}, fmt.Errorf("%w: public key file is %d bytes, want %d", ErrCorruptedKey, len(pkBytes), KeySize)
	}
	skBytes, err := os.ReadFile(skPath)
	if err != nil {
		return PublicKey{}, SecretKey{}, fmt.Errorf("read secret key: %w", err)
	}
	if len(skBytes) != SecretKeySize {
		return PublicKey{}, SecretKey{}, fmt.Errorf("%w: secret key file is %d bytes, want %d", ErrCorruptedKey, len(skBytes), SecretKeySize)
	}

	var pk PublicKey
	var sk SecretKey
	copy(pk[:], pkBytes)
	copy(sk[:], skBytes)
	return pk, sk, nil
}
