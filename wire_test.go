package tr1pd

import "testing"

func TestReaderReadLenPrefixed(t *testing.T) {
	lb, err := LenToUint16BE(3)
	if err != nil {
		t.Fatal(err)
	}
	buf := append(append([]byte{}, lb[:]...), []byte("abc")...)
	r := newReader(buf)
	payload, err := r.readLenPrefixed()
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "abc" {
		t.Errorf("expected payload %q, got %q", "abc", payload)
	}
	if !r.atEnd() {
		t.Error("expected reader to be at end after consuming the full buffer")
	}
}

func TestReaderShortInput(t *testing.T) {
	r := newReader([]byte{0x01, 0x02})
	if _, err := r.readN(3); err == nil {
		t.Error("expected reading past the buffer end to fail")
	}
}

func TestReaderReadPointerAndSignature(t *testing.T) {
	p := HashPointer([]byte("x"))
	sig := Signature{}
	for i := range sig {
		sig[i] = byte(i)
	}
	buf := append(append([]byte{}, p[:]...), sig[:]...)
	r := newReader(buf)

	gotP, err := r.readPointer()
	if err != nil {
		t.Fatal(err)
	}
	if gotP != p {
		t.Error("expected read pointer to match")
	}
	gotSig, err := r.readSignature()
	if err != nil {
		t.Fatal(err)
	}
	if gotSig != sig {
		t.Error("expected read signature to match")
	}
	if !r.atEnd() {
		t.Error("expected reader to be exhausted")
	}
}
