package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/promo-claim/internal/pkg/id"
)

// ResolveID returns the device identifier stored at path when present,
// otherwise mints a new one and persists it. The identifier keys the
// device-wide recovery slot, so it must outlive sessions and restarts.
func ResolveID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		if devID := strings.TrimSpace(string(b)); id.Valid(devID) {
			return devID, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	devID := id.New()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create device id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(devID+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return devID, nil
}
