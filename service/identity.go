package service

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

const identityFileName = "uuid.txt"

// IdentityService owns the node identity, a UUID that doubles as the
// credential in every generated URI. It lives in uuid.txt, which the
// startup wipe preserves, so the identity is stable across restarts.
type IdentityService struct {
}

// LoadIdentity returns the persisted identity, creating and persisting
// a fresh one on first run.
func (s *IdentityService) LoadIdentity(dir string) (string, error) {
	identityFile := filepath.Join(dir, identityFileName)

	data, err := os.ReadFile(identityFile)
	if err == nil {
		if identity := strings.TrimSpace(string(data)); identity != "" {
			return identity, nil
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	fresh, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	identity := fresh.String()
	if err := os.WriteFile(identityFile, []byte(identity), 0644); err != nil {
		return "", err
	}
	return identity, nil
}
