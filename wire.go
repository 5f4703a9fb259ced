package tr1pd

import "encoding/binary"

// reader is a small cursor over an in-memory buffer used to decode the
// fixed-shape binary frames this package defines (blocks, recipes,
// control messages). It never allocates beyond the slices it returns.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() []byte {
	return r.buf[r.off:]
}

func (r *reader) atEnd() bool {
	return r.off >= len(r.buf)
}

func (r *reader) readN(n int) ([]byte, error) {
	if len(r.buf)-r.off < n {
		return nil, ErrShortInput
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readPointer() (BlockPointer, error) {
	b, err := r.readN(KeySize)
	if err != nil {
		return BlockPointer{}, err
	}
	var p BlockPointer
	copy(p[:], b)
	return p, nil
}

func (r *reader) readPubKey() (PublicKey, error) {
	b, err := r.readN(KeySize)
	if err != nil {
		return PublicKey{}, err
	}
	var pk PublicKey
	copy(pk[:], b)
	return pk, nil
}

func (r *reader) readSignature() (Signature, error) {
	b, err := r.readN(SignatureSize)
	if err != nil {
		return Signature{}, err
	}
	var sig Signature
	copy(sig[:], b)
	return sig, nil
}

func (r *reader) readUint16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// readLenPrefixed reads a u16-be length followed by that many bytes, the
// shape shared by block payloads and Info control-recipe payloads.
func (r *reader) readLenPrefixed() ([]byte, error) {
	n, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}
