package tr1pd

import (
	"os"
	"path/filepath"
)

// Default locations, overridable by the TR1PD_SOCKET/TR1PD_DATADIR
// environment variables per §6; cmd/ flag parsing overrides both again.
const (
	DefaultSocketPath = "/run/tr1pd/tr1pd.sock"
	DefaultDataDir    = "/var/lib/tr1pd"
)

// Config bundles the daemon's runtime locations. It is a plain struct so
// tests can construct one directly without going through flag parsing.
type Config struct {
	SocketPath string
	DataDir    string
}

// DefaultConfig returns a Config seeded from TR1PD_SOCKET/TR1PD_DATADIR,
// falling back to the compiled-in defaults.
func DefaultConfig() Config {
	cfg := Config{SocketPath: DefaultSocketPath, DataDir: DefaultDataDir}
	if v := os.Getenv("TR1PD_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("TR1PD_DATADIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg
}

// KeyPaths derives the long-term key file paths from an etc directory
// (the cmd/ tools pass <DataDir>/keys; kept separate in the type signature
// since key material lives "outside core" per §6).
func KeyPaths(etcDir string) (pkPath, skPath string) {
	return filepath.Join(etcDir, "lt.pk"), filepath.Join(etcDir, "lt.sk")
}
