package tr1pd

import "testing"

func TestVerifyRingInitThenRekeyThenInfo(t *testing.T) {
	signer := newTestSigner(t)
	init, err := InitBlock(EmptyPointer, signer)
	if err != nil {
		t.Fatal(err)
	}
	info1, err := InfoBlock(init.Pointer(), signer, []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	rekey, err := RekeyBlock(info1.Pointer(), signer)
	if err != nil {
		t.Fatal(err)
	}
	info2, err := InfoBlock(rekey.Pointer(), signer, []byte("two"))
	if err != nil {
		t.Fatal(err)
	}

	ring := NewVerifyRing(signer.LongtermPublicKey())
	for _, b := range []Block{init, info1, rekey, info2} {
		if err := ring.VerifyLongterm(b); err != nil {
			t.Fatalf("long-term verify failed for %s: %v", b.Identifier(), err)
		}
	}

	if err := ring.Init(init.Inner.SessionPK); err != nil {
		t.Fatal(err)
	}
	if err := ring.VerifyBlockSession(info1); err != nil {
		t.Errorf("expected info1 session signature to verify, got %v", err)
	}
	if err := ring.Rekey(rekey); err != nil {
		t.Errorf("expected rekey session signature to verify, got %v", err)
	}
	if err := ring.VerifyBlockSession(info2); err != nil {
		t.Errorf("expected info2 (post-rekey) session signature to verify, got %v", err)
	}
}

func TestVerifyRingRejectsDoubleInit(t *testing.T) {
	ring := NewVerifyRing(PublicKey{})
	var pk PublicKey
	if err := ring.Init(pk); err != nil {
		t.Fatal(err)
	}
	if err := ring.Init(pk); err == nil {
		t.Error("expected a second Init to be rejected by a clean ring")
	}
}

func TestVerifyRingUncleanRekeyBypassesDoubleInitGuard(t *testing.T) {
	ring := NewVerifyRing(PublicKey{})
	var pk1, pk2 PublicKey
	pk2[0] = 0x01
	if err := ring.Init(pk1); err != nil {
		t.Fatal(err)
	}
	ring.UncleanRekey(pk2)
	if !ring.sessionSet || ring.sessionPK != pk2 {
		t.Error("expected UncleanRekey to force-set the tracked session key")
	}
}

func TestVerifyRingDetectsTamperedSessionSignature(t *testing.T) {
	signer := newTestSigner(t)
	init, err := InitBlock(EmptyPointer, signer)
	if err != nil {
		t.Fatal(err)
	}
	info, err := InfoBlock(init.Pointer(), signer, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	info.Inner.SessionSig[0] ^= 0xff

	ring := NewVerifyRing(signer.LongtermPublicKey())
	if err := ring.Init(init.Inner.SessionPK); err != nil {
		t.Fatal(err)
	}
	if err := ring.VerifyBlockSession(info); err == nil {
		t.Error("expected a tampered session signature to fail verification")
	}
}
