package tr1pd

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// sqliteStore is a third Store implementation, backed by SQLite. Its
// schema is just the content-addressed blob-plus-HEAD contract every
// Store backend here implements.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed Store.
// dsn is passed straight to database/sql, e.g. "file:/var/lib/tr1pd/ledger.db".
func OpenSQLiteStore(dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	st := &sqliteStore{db: db}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS blocks (
  pointer BLOB PRIMARY KEY,
  bytes   BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS head (
  id      INTEGER PRIMARY KEY CHECK (id = 1),
  pointer BLOB NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) WriteBytes(p BlockPointer, b []byte) error {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO blocks(pointer, bytes) VALUES (?, ?)`, p[:], b)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrBlockExists
	}
	return nil
}

func (s *sqliteStore) GetBytes(p BlockPointer) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT bytes FROM blocks WHERE pointer = ?`, p[:]).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchBlock
	}
	if err != nil {
		return nil, fmt.Errorf("select block: %w", err)
	}
	if !p.Verifies(raw) {
		return nil, ErrCorruptedBlock
	}
	return raw, nil
}

func (s *sqliteStore) GetHead() (BlockPointer, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT pointer FROM head WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return BlockPointer{}, ErrHeadUnset
	}
	if err != nil {
		return BlockPointer{}, fmt.Errorf("select head: %w", err)
	}
	var p BlockPointer
	if len(raw) != KeySize {
		return BlockPointer{}, ErrInvalidBlockPointer
	}
	copy(p[:], raw)
	return p, nil
}

func (s *sqliteStore) UpdateHead(p BlockPointer) error {
	_, err := s.db.Exec(`
INSERT INTO head(id, pointer) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET pointer = excluded.pointer
`, p[:])
	if err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	return nil
}

func (s *sqliteStore) Push(b Block) error {
	return storePush(s, b)
}

func (s *sqliteStore) Get(p BlockPointer) (Block, error) {
	return storeGet(s, p)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
