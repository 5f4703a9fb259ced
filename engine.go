package tr1pd

import "fmt"

// Engine ties a signer, a storage backend and a HEAD pointer into a
// single append-only state machine. It is the only thing in this package
// that mutates a ledger: every write goes through one of its operations.
type Engine struct {
	storage Store
	signer  *SigningRing
	head    BlockPointer
}

// Start brings up an Engine against storage and signer. It reads the
// store's current HEAD (or starts from the empty sentinel on a fresh
// store) and immediately appends a fresh Init block — every daemon start
// opens a new session. This means a chain verified across restarts needs
// a pinned trusted starting block; fsck's paranoid flag treats any
// further Init inside a single verified range as fatal for exactly this
// reason (see DESIGN.md).
func Start(storage Store, signer *SigningRing) (*Engine, error) {
	head, err := storage.GetHead()
	if err != nil {
		head = EmptyPointer
	}

	e := &Engine{storage: storage, signer: signer, head: head}
	if _, err := e.Init(); err != nil {
		return nil, fmt.Errorf("startup init: %w", err)
	}
	return e, nil
}

// Head returns the engine's current HEAD pointer.
func (e *Engine) Head() BlockPointer {
	return e.head
}

func (e *Engine) append(b Block) (BlockPointer, error) {
	if err := e.storage.Push(b); err != nil {
		return BlockPointer{}, err
	}
	e.head = b.Pointer()
	return e.head, nil
}

// Init appends a fresh Init block atop the current HEAD.
func (e *Engine) Init() (BlockPointer, error) {
	b, err := InitBlock(e.head, e.signer)
	if err != nil {
		return BlockPointer{}, err
	}
	return e.append(b)
}

// Rekey appends a Rekey block, retiring the current session key.
func (e *Engine) Rekey() (BlockPointer, error) {
	b, err := RekeyBlock(e.head, e.signer)
	if err != nil {
		return BlockPointer{}, err
	}
	return e.append(b)
}

// Alert appends an Alert block: a Rekey carrying an application payload.
func (e *Engine) Alert(payload []byte) (BlockPointer, error) {
	b, err := AlertBlock(e.head, e.signer, payload)
	if err != nil {
		return BlockPointer{}, err
	}
	return e.append(b)
}

// Info appends an Info block signed by the current session key.
func (e *Engine) Info(payload []byte) (BlockPointer, error) {
	b, err := InfoBlock(e.head, e.signer, payload)
	if err != nil {
		return BlockPointer{}, err
	}
	return e.append(b)
}

// Recipe dispatches a client-requested BlockRecipe. RecipeInfo is a
// deliberate two-block operation: the Info block is appended, then a
// silent Rekey follows immediately, so the key that signed the Info is
// destroyed before any further Info can be accepted. The pointer returned
// for RecipeInfo is the trailing Rekey block's, matching the control
// protocol's Ack semantics.
func (e *Engine) Recipe(r BlockRecipe) (BlockPointer, error) {
	switch rec := r.(type) {
	case RecipeRekey:
		return e.Rekey()
	case RecipeInfo:
		if _, err := e.Info(rec.Bytes); err != nil {
			return BlockPointer{}, err
		}
		return e.Rekey()
	default:
		return BlockPointer{}, fmt.Errorf("%w: unknown recipe type %T", ErrInvalidRequest, r)
	}
}
