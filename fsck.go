package tr1pd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// FsckFlags controls fsck's verification policy and reporting verbosity.
type FsckFlags struct {
	Verbose  bool
	Quiet    bool
	Paranoid bool
}

// Walk verifies every block named by pointers, in order, against a
// trusted long-term public key. The first block in the range is always
// *trusted* for session initialization purposes — its long-term
// signature is still checked, but no prior session key is required to
// validate it, which is how a caller pins a known-good starting block.
//
// A verification failure at any block is fatal and aborts the walk
// immediately, per §4.9/§7: fsck never attempts partial recovery.
func Walk(store Store, pointers []BlockPointer, longtermPK PublicKey, flags FsckFlags, w io.Writer) error {
	ring := NewVerifyRing(longtermPK)

	for i, p := range pointers {
		raw, err := store.GetBytes(p)
		if err != nil {
			return fmt.Errorf("read block %s: %w", p, err)
		}
		b, err := DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("decode block %s: %w", p, err)
		}

		if err := ring.VerifyLongterm(b); err != nil {
			return fmt.Errorf("verify long-term signature of %s: %w", p, err)
		}

		first := i == 0
		switch b.Identifier() {
		case KindInit:
			if flags.Paranoid && !first {
				return fmt.Errorf("block %s: %w", p, ErrParanoidSecondInit)
			}
			if first {
				if err := ring.Init(b.Inner.SessionPK); err != nil {
					return fmt.Errorf("init block %s: %w", p, err)
				}
			} else {
				ring.UncleanRekey(b.Inner.SessionPK)
			}
		case KindRekey, KindAlert:
			if err := ring.Rekey(b); err != nil {
				return fmt.Errorf("verify session signature of %s: %w", p, err)
			}
		case KindInfo:
			if err := ring.VerifyBlockSession(b); err != nil {
				return fmt.Errorf("verify session signature of %s: %w", p, err)
			}
		}

		if flags.Verbose && !flags.Quiet && w != nil {
			fmt.Fprintf(w, "%s %-5s %s\n", p, b.Identifier(), humanize.Bytes(uint64(len(raw))))
		}
	}
	return nil
}
