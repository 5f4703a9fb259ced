package tr1pd

// VerifyRing is the reader-side counterpart to SigningRing: it tracks a
// trusted long-term public key and the session public key currently in
// force while replaying a chain.
type VerifyRing struct {
	ltPK PublicKey

	sessionSet bool
	sessionPK  PublicKey
}

// NewVerifyRing creates a verify ring trusting ltPK for long-term signatures.
func NewVerifyRing(ltPK PublicKey) *VerifyRing {
	return &VerifyRing{ltPK: ltPK}
}

// VerifyLongterm checks a block's long-term signature against the ring's
// trusted long-term key.
func (r *VerifyRing) VerifyLongterm(b Block) error {
	return b.VerifyLongterm(r.ltPK)
}

// Init admits the first session key this ring will track. It fails if a
// session key is already set — callers that need to re-pin a session key
// across a paranoid boundary (a second Init encountered mid-range with
// paranoid checking disabled) must use UncleanRekey instead.
func (r *VerifyRing) Init(pk PublicKey) error {
	if r.sessionSet {
		return ErrProtocolViolation
	}
	r.sessionPK = pk
	r.sessionSet = true
	return nil
}

// UncleanRekey force-sets the tracked session key regardless of current
// state. It exists for the one legitimate case where a ledger contains
// more than one Init (a daemon restart): a non-paranoid fsck walk simply
// re-pins its session tracking at each Init it meets.
func (r *VerifyRing) UncleanRekey(pk PublicKey) {
	r.sessionPK = pk
	r.sessionSet = true
}

// VerifySession verifies a detached signature against the ring's current
// session key. It fails ErrProtocolViolation if no session key is set.
func (r *VerifyRing) VerifySession(msg []byte, sig Signature) error {
	if !r.sessionSet {
		return ErrProtocolViolation
	}
	return Verify(sig, msg, r.sessionPK)
}

// Rekey verifies a Rekey or Alert block's session signature against the
// current session key, then rotates the tracked key to the block's
// published successor.
func (r *VerifyRing) Rekey(b Block) error {
	if b.Inner.Kind != KindRekey && b.Inner.Kind != KindAlert {
		return ErrProtocolViolation
	}
	if err := r.VerifySession(b.Inner.presig(), b.Inner.SessionSig); err != nil {
		return err
	}
	r.sessionPK = b.Inner.NewSessionPK
	return nil
}

// VerifyBlockSession verifies an Info block's session signature without
// rotating the tracked session key.
func (r *VerifyRing) VerifyBlockSession(b Block) error {
	if b.Inner.Kind != KindInfo {
		return ErrProtocolViolation
	}
	return r.VerifySession(b.Inner.presig(), b.Inner.SessionSig)
}
