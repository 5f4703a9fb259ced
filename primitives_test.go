package tr1pd

import "testing"

func TestGenerateKeypairSignVerify(t *testing.T) {
	pk, sk, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("hello ledger")
	sig := Sign(msg, sk)
	if err := Verify(sig, msg, pk); err != nil {
		t.Errorf("expected valid signature, got %v", err)
	}
	if err := Verify(sig, []byte("tampered"), pk); err == nil {
		t.Error("expected verification to fail against a different message")
	}
}

func TestSecretKeyWipe(t *testing.T) {
	_, sk, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	sk.Wipe()
	var zero SecretKey
	if sk != zero {
		t.Error("expected wiped secret key to be all-zero")
	}
}

func TestHashPointerIdentity(t *testing.T) {
	buf := []byte("canonical block bytes")
	p1 := HashPointer(buf)
	p2 := HashPointer(buf)
	if !p1.Equal(p2) {
		t.Error("expected HashPointer to be deterministic")
	}
	if !p1.Verifies(buf) {
		t.Error("expected pointer to verify its own source bytes")
	}
	if p1.Verifies([]byte("other bytes")) {
		t.Error("expected pointer to reject a different buffer")
	}
}

func TestBlockPointerRoundTrip(t *testing.T) {
	p := HashPointer([]byte("round trip"))
	s := p.String()
	parsed, err := ParseBlockPointer(s)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(p) {
		t.Error("expected parsed pointer to equal the original")
	}
}

func TestParseBlockPointerRejectsBadLength(t *testing.T) {
	if _, err := ParseBlockPointer("deadbeef"); err == nil {
		t.Error("expected short hex string to be rejected")
	}
}

func TestLenToUint16BE(t *testing.T) {
	if _, err := LenToUint16BE(1 << 16); err == nil {
		t.Error("expected 65536 to be rejected as too large")
	}
	if _, err := LenToUint16BE(-1); err == nil {
		t.Error("expected negative length to be rejected")
	}
	b, err := LenToUint16BE(0x1234)
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0x12 || b[1] != 0x34 {
		t.Errorf("expected big-endian 0x1234, got %x", b)
	}
}

func TestEmptyPointerIsZero(t *testing.T) {
	var p BlockPointer
	if !p.IsEmpty() {
		t.Error("expected zero-value BlockPointer to report IsEmpty")
	}
	if !EmptyPointer.IsEmpty() {
		t.Error("expected EmptyPointer sentinel to report IsEmpty")
	}
}
