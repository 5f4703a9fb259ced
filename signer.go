package tr1pd

// SigningRing is the writer-side key state machine: a long-term identity
// keypair plus a rolling session keypair with delayed promotion.
//
// The delayed slot is the linchpin of forward secrecy. StartRekey
// generates the next session keypair but does not yet make it current;
// SignSession still signs with the *outgoing* key so the rekey block's
// chain of custody is unbroken. Only FinalizeRekey promotes the delayed
// key and wipes the outgoing secret — so a process compromised after that
// point cannot forge anything the outgoing key signed.
type SigningRing struct {
	ltPK PublicKey
	ltSK SecretKey

	sessionSet bool
	sessionPK  PublicKey
	sessionSK  SecretKey

	delayedSet bool
	delayedPK  PublicKey
	delayedSK  SecretKey
}

// NewSigningRing binds a signing ring to a long-term identity keypair.
func NewSigningRing(ltPK PublicKey, ltSK SecretKey) *SigningRing {
	return &SigningRing{ltPK: ltPK, ltSK: ltSK}
}

// Init generates a fresh session keypair and makes it current. Building a
// second Init on a live ring simply replaces the session key — it is the
// paranoid verifier, not the signer, that objects to a second Init.
func (r *SigningRing) Init() (PublicKey, error) {
	pk, sk, err := GenerateKeypair()
	if err != nil {
		return PublicKey{}, err
	}
	r.sessionPK, r.sessionSK = pk, sk
	r.sessionSet = true
	return pk, nil
}

// StartRekey generates the next session keypair and parks it in the
// delayed slot without yet making it current.
func (r *SigningRing) StartRekey() (PublicKey, error) {
	pk, sk, err := GenerateKeypair()
	if err != nil {
		return PublicKey{}, err
	}
	r.delayedPK, r.delayedSK = pk, sk
	r.delayedSet = true
	return pk, nil
}

// SignSession signs msg with the current session key — the outgoing key,
// when called between StartRekey and FinalizeRekey.
func (r *SigningRing) SignSession(msg []byte) (Signature, error) {
	if !r.sessionSet {
		return Signature{}, ErrProtocolViolation
	}
	return Sign(msg, r.sessionSK), nil
}

// FinalizeRekey promotes the delayed keypair into the current session
// slot and wipes the outgoing secret key's bytes in place.
func (r *SigningRing) FinalizeRekey() error {
	if !r.delayedSet {
		return ErrProtocolViolation
	}
	r.sessionSK.Wipe()
	r.sessionPK, r.sessionSK = r.delayedPK, r.delayedSK
	r.sessionSet = true
	r.delayedPK, r.delayedSK = PublicKey{}, SecretKey{}
	r.delayedSet = false
	return nil
}

// SignLongterm signs msg with the long-term identity key.
func (r *SigningRing) SignLongterm(msg []byte) Signature {
	return Sign(msg, r.ltSK)
}

// LongtermPublicKey returns the ring's long-term public key.
func (r *SigningRing) LongtermPublicKey() PublicKey {
	return r.ltPK
}

// SessionActive reports whether a current session key is set, and
// returns a zero-value otherwise-invalid key when not.
func (r *SigningRing) SessionActive() (PublicKey, bool) {
	return r.sessionPK, r.sessionSet
}
