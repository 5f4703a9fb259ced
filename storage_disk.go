package tr1pd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// diskStore implements Store as a rooted directory of content-addressed
// files: one file per block, advisory locking, fsync before the caller is
// told a write landed, keyed by BlockPointer rather than a sequential index.
//
// Layout, rooted at dir:
//
//	<dir>/blocks/<hex[0:4]>/<hex[4:]>   one file per block, mode 0640
//	<dir>/HEAD                         symlink -> blocks/<hex[0:4]>/<hex[4:]>
type diskStore struct {
	dir string
	mu  sync.Mutex
}

// OpenDiskStore opens (creating if necessary) a disk-backed Store rooted
// at dir.
func OpenDiskStore(dir string) (Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "blocks"), 0700); err != nil {
		return nil, fmt.Errorf("create blocks directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

func (s *diskStore) blockPath(p BlockPointer) string {
	hexStr := p.String()
	return filepath.Join(s.dir, "blocks", hexStr[:4], hexStr[4:])
}

func (s *diskStore) headPath() string {
	return filepath.Join(s.dir, "HEAD")
}

func (s *diskStore) ensureParentFolder(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}

// WriteBytes creates the block file exclusively; a pointer that already
// exists returns ErrBlockExists, since blocks are immutable.
func (s *diskStore) WriteBytes(p BlockPointer, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.blockPath(p)
	if err := s.ensureParentFolder(path); err != nil {
		return fmt.Errorf("ensure parent folder: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		if os.IsExist(err) {
			return ErrBlockExists
		}
		return fmt.Errorf("create block file: %w", err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock block file: %w", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	n, err := f.Write(b)
	if err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	if n != len(b) {
		return fmt.Errorf("incomplete write: %d of %d bytes", n, len(b))
	}
	return f.Sync()
}

// GetBytes reads the block file at pointer and verifies its content hash.
func (s *diskStore) GetBytes(p BlockPointer) ([]byte, error) {
	raw, err := os.ReadFile(s.blockPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSuchBlock
		}
		return nil, fmt.Errorf("read block file: %w", err)
	}
	if !p.Verifies(raw) {
		return nil, ErrCorruptedBlock
	}
	return raw, nil
}

// GetHead resolves the HEAD symlink to a pointer.
func (s *diskStore) GetHead() (BlockPointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := os.Readlink(s.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return BlockPointer{}, ErrHeadUnset
		}
		return BlockPointer{}, fmt.Errorf("read HEAD: %w", err)
	}
	return pointerFromBlocksRelPath(target)
}

// UpdateHead installs a new HEAD symlink pointing at p by creating a temp
// symlink and renaming it over the old one, so a crash mid-update leaves
// either the old or the new HEAD in place, never a missing or half-written
// one. See DESIGN.md for why this departs from a literal remove-then-link
// sequence.
func (s *diskStore) UpdateHead(p BlockPointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.headPath()
	tmp := head + ".tmp"
	_ = os.Remove(tmp)

	hexStr := p.String()
	rel := filepath.Join("blocks", hexStr[:4], hexStr[4:])
	if err := os.Symlink(rel, tmp); err != nil {
		return fmt.Errorf("create temp HEAD symlink: %w", err)
	}
	if err := os.Rename(tmp, head); err != nil {
		return fmt.Errorf("install HEAD symlink: %w", err)
	}
	return nil
}

// pointerFromBlocksRelPath parses a "blocks/<hex4>/<hex60>" relative path
// (the shape of a HEAD symlink target) back into a BlockPointer.
func pointerFromBlocksRelPath(rel string) (BlockPointer, error) {
	dir, file := filepath.Split(rel)
	prefix := filepath.Base(filepath.Clean(dir))
	return ParseBlockPointer(prefix + file)
}

func (s *diskStore) Push(b Block) error {
	return storePush(s, b)
}

func (s *diskStore) Get(p BlockPointer) (Block, error) {
	return storeGet(s, p)
}

func (s *diskStore) Close() error {
	return nil
}
