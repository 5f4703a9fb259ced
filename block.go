package tr1pd

// BlockKind tags which of the four InnerBlock variants a block carries.
type BlockKind byte

const (
	KindInit  BlockKind = 0x00
	KindRekey BlockKind = 0x01
	KindAlert BlockKind = 0x02
	KindInfo  BlockKind = 0x03
)

func (k BlockKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindRekey:
		return "rekey"
	case KindAlert:
		return "alert"
	case KindInfo:
		return "info"
	default:
		return "unknown"
	}
}

// InnerBlock is the tagged union of the four block variants. Not every
// field is meaningful for every Kind:
//
//	Init:  Prev, SessionPK
//	Rekey: Prev, NewSessionPK, SessionSig
//	Alert: Prev, NewSessionPK, Bytes, SessionSig
//	Info:  Prev, Bytes, SessionSig
type InnerBlock struct {
	Kind         BlockKind
	Prev         BlockPointer
	SessionPK    PublicKey // Init only
	NewSessionPK PublicKey // Rekey, Alert
	Bytes        []byte    // Alert, Info
	SessionSig   Signature // Rekey, Alert, Info
}

// presig returns prev‖tag‖variant-body, excluding any trailing session
// signature. This is exactly what the session key in force signs (the
// outgoing key for Rekey and Alert, the current key for Info) and is also
// the prefix of the inner's full canonical form.
func (b InnerBlock) presig() []byte {
	out := make([]byte, 0, KeySize+1+KeySize+2+len(b.Bytes))
	out = append(out, b.Prev[:]...)
	out = append(out, byte(b.Kind))
	switch b.Kind {
	case KindInit:
		out = append(out, b.SessionPK[:]...)
	case KindRekey:
		out = append(out, b.NewSessionPK[:]...)
	case KindAlert:
		out = append(out, b.NewSessionPK[:]...)
		lb, err := LenToUint16BE(len(b.Bytes))
		if err != nil {
			// Construction paths check this before ever reaching presig;
			// a violation here means a decoded or hand-built InnerBlock
			// skipped that check.
			panic(err)
		}
		out = append(out, lb[:]...)
		out = append(out, b.Bytes...)
	case KindInfo:
		lb, err := LenToUint16BE(len(b.Bytes))
		if err != nil {
			panic(err)
		}
		out = append(out, lb[:]...)
		out = append(out, b.Bytes...)
	}
	return out
}

// Canonical returns the full canonical encoding of the inner block,
// including the trailing session signature for every variant but Init.
func (b InnerBlock) Canonical() []byte {
	out := b.presig()
	if b.Kind != KindInit {
		out = append(out, b.SessionSig[:]...)
	}
	return out
}

// Block is the outer envelope: an InnerBlock plus the long-term signature
// over its canonical encoding.
type Block struct {
	Inner       InnerBlock
	LongtermSig Signature

	ptr BlockPointer
}

// Canonical returns the full wire/hash encoding of the block:
// canonical(inner) ‖ longterm_sig.
func (b Block) Canonical() []byte {
	out := b.Inner.Canonical()
	out = append(out, b.LongtermSig[:]...)
	return out
}

// Pointer returns SHA3_256(Canonical()), cached from construction/decode.
func (b Block) Pointer() BlockPointer {
	return b.ptr
}

// Prev returns the block's predecessor pointer.
func (b Block) Prev() BlockPointer {
	return b.Inner.Prev
}

// Identifier returns the block's variant tag.
func (b Block) Identifier() BlockKind {
	return b.Inner.Kind
}

// Message returns the application payload for Alert/Info blocks, and
// false for Init/Rekey which carry none.
func (b Block) Message() ([]byte, bool) {
	switch b.Inner.Kind {
	case KindAlert, KindInfo:
		return b.Inner.Bytes, true
	default:
		return nil, false
	}
}

// VerifyLongterm checks the block's long-term signature against pk.
func (b Block) VerifyLongterm(pk PublicKey) error {
	return Verify(b.LongtermSig, b.Inner.Canonical(), pk)
}

func sealBlock(inner InnerBlock, signer *SigningRing) (Block, error) {
	ltSig := signer.SignLongterm(inner.Canonical())
	b := Block{Inner: inner, LongtermSig: ltSig}
	b.ptr = HashPointer(b.Canonical())
	return b, nil
}

// InitBlock opens a session: the signer generates (or, on a live ring,
// replaces) the session keypair, and the resulting Init carries no
// session signature — there is no prior session key to sign with.
func InitBlock(prev BlockPointer, signer *SigningRing) (Block, error) {
	sessionPK, err := signer.Init()
	if err != nil {
		return Block{}, err
	}
	inner := InnerBlock{Kind: KindInit, Prev: prev, SessionPK: sessionPK}
	return sealBlock(inner, signer)
}

// RekeyBlock retires the current session key and publishes a new one,
// signed by the outgoing session key, then promotes the new key into
// place and wipes the outgoing secret.
func RekeyBlock(prev BlockPointer, signer *SigningRing) (Block, error) {
	newPK, err := signer.StartRekey()
	if err != nil {
		return Block{}, err
	}
	inner := InnerBlock{Kind: KindRekey, Prev: prev, NewSessionPK: newPK}
	sig, err := signer.SignSession(inner.presig())
	if err != nil {
		return Block{}, err
	}
	inner.SessionSig = sig
	b, err := sealBlock(inner, signer)
	if err != nil {
		return Block{}, err
	}
	if err := signer.FinalizeRekey(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// AlertBlock is a Rekey that also carries an operator-visible payload.
func AlertBlock(prev BlockPointer, signer *SigningRing, payload []byte) (Block, error) {
	if _, err := LenToUint16BE(len(payload)); err != nil {
		return Block{}, err
	}
	newPK, err := signer.StartRekey()
	if err != nil {
		return Block{}, err
	}
	inner := InnerBlock{Kind: KindAlert, Prev: prev, NewSessionPK: newPK, Bytes: append([]byte(nil), payload...)}
	sig, err := signer.SignSession(inner.presig())
	if err != nil {
		return Block{}, err
	}
	inner.SessionSig = sig
	b, err := sealBlock(inner, signer)
	if err != nil {
		return Block{}, err
	}
	if err := signer.FinalizeRekey(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// InfoBlock signs payload with the current session key without rotating it.
func InfoBlock(prev BlockPointer, signer *SigningRing, payload []byte) (Block, error) {
	if _, err := LenToUint16BE(len(payload)); err != nil {
		return Block{}, err
	}
	inner := InnerBlock{Kind: KindInfo, Prev: prev, Bytes: append([]byte(nil), payload...)}
	sig, err := signer.SignSession(inner.presig())
	if err != nil {
		return Block{}, err
	}
	inner.SessionSig = sig
	return sealBlock(inner, signer)
}

// DecodeBlock is the inverse of Block.Canonical(): it reads prev, a tag
// byte, dispatches to the matching variant parser, then reads the
// trailing long-term signature. Encoding is total; decoding fails with
// ErrShortInput, ErrInvalidBlockIdentifier(tag), or ErrTrailingBytes.
func DecodeBlock(buf []byte) (Block, error) {
	r := newReader(buf)

	prev, err := r.readPointer()
	if err != nil {
		return Block{}, err
	}
	tagByte, err := r.readByte()
	if err != nil {
		return Block{}, err
	}
	kind := BlockKind(tagByte)

	inner := InnerBlock{Kind: kind, Prev: prev}

	switch kind {
	case KindInit:
		pk, err := r.readPubKey()
		if err != nil {
			return Block{}, err
		}
		inner.SessionPK = pk
	case KindRekey:
		pk, err := r.readPubKey()
		if err != nil {
			return Block{}, err
		}
		inner.NewSessionPK = pk
		sig, err := r.readSignature()
		if err != nil {
			return Block{}, err
		}
		inner.SessionSig = sig
	case KindAlert:
		pk, err := r.readPubKey()
		if err != nil {
			return Block{}, err
		}
		inner.NewSessionPK = pk
		payload, err := r.readLenPrefixed()
		if err != nil {
			return Block{}, err
		}
		inner.Bytes = append([]byte(nil), payload...)
		sig, err := r.readSignature()
		if err != nil {
			return Block{}, err
		}
		inner.SessionSig = sig
	case KindInfo:
		payload, err := r.readLenPrefixed()
		if err != nil {
			return Block{}, err
		}
		inner.Bytes = append([]byte(nil), payload...)
		sig, err := r.readSignature()
		if err != nil {
			return Block{}, err
		}
		inner.SessionSig = sig
	default:
		return Block{}, ErrInvalidBlockIdentifier(tagByte)
	}

	ltSig, err := r.readSignature()
	if err != nil {
		return Block{}, err
	}
	if !r.atEnd() {
		return Block{}, ErrTrailingBytes
	}

	b := Block{Inner: inner, LongtermSig: ltSig}
	b.ptr = HashPointer(buf)
	return b, nil
}
