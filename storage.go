package tr1pd

import "fmt"

// Store is the content-addressed persistence contract every backend
// (disk, memory, sqlite) implements. Blocks are immutable: WriteBytes
// must fail ErrBlockExists if the pointer is already occupied. GetBytes
// must verify SHA3_256(bytes) == pointer before returning, failing
// ErrCorruptedBlock otherwise. Neither requirement nor any backend caches
// decoded blocks — Get always decodes fresh from GetBytes.
type Store interface {
	// WriteBytes persists exactly these bytes keyed by pointer.
	WriteBytes(p BlockPointer, b []byte) error
	// GetBytes returns the bytes stored at pointer, content-verified.
	GetBytes(p BlockPointer) ([]byte, error)
	// GetHead returns the current HEAD pointer, or ErrHeadUnset.
	GetHead() (BlockPointer, error)
	// UpdateHead atomically replaces HEAD.
	UpdateHead(p BlockPointer) error
	// Push writes a block's bytes then updates HEAD to its pointer.
	Push(b Block) error
	// Get decodes the block stored at pointer.
	Get(p BlockPointer) (Block, error)
	// Close releases any resources the backend holds open.
	Close() error
}

// storePush implements the Push = WriteBytes + UpdateHead contract shared
// by every backend.
func storePush(s Store, b Block) error {
	if err := s.WriteBytes(b.Pointer(), b.Canonical()); err != nil {
		return err
	}
	return s.UpdateHead(b.Pointer())
}

// storeGet implements the Get = DecodeBlock(GetBytes(pointer)) contract
// shared by every backend.
func storeGet(s Store, p BlockPointer) (Block, error) {
	raw, err := s.GetBytes(p)
	if err != nil {
		return Block{}, err
	}
	b, err := DecodeBlock(raw)
	if err != nil {
		return Block{}, fmt.Errorf("decode block %s: %w", p, err)
	}
	return b, nil
}
