package auth

import (
	"crypto/subtle"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"payme-merchant/pkg/logging"
)

// Verifier checks merchant cabinet credentials. The login is fixed at
// startup; the password lives in the key file issued by the processor and
// is re-read on every check so that a rotation via ChangePassword takes
// effect without a restart.
type Verifier struct {
	login   string
	keyFile string
	mu      sync.Mutex
}

// NewVerifier creates a credential verifier over the given key file.
func NewVerifier(login, keyFile string) *Verifier {
	return &Verifier{login: login, keyFile: keyFile}
}

// Password reads the current password from the key file.
func (v *Verifier) Password() (string, error) {
	data, err := os.ReadFile(v.keyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read merchant key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Verify checks Basic credentials against the configured login and the
// stored password. Comparisons are constant-time.
func (v *Verifier) Verify(login, password string) bool {
	current, err := v.Password()
	if err != nil {
		logging.Errorf("Auth check failed: %v", err)
		return false
	}

	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(v.login)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(current)) == 1
	return loginOK && passwordOK
}

// SamePassword reports whether the given password equals the stored one.
func (v *Verifier) SamePassword(password string) (bool, error) {
	current, err := v.Password()
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(current)) == 1, nil
}

// UpdatePassword rotates the stored password. The key file is replaced
// atomically so a concurrent Verify never observes a partial write.
func (v *Verifier) UpdatePassword(password string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	dir := filepath.Dir(v.keyFile)
	tmp, err := os.CreateTemp(dir, ".paycom-key-*")
	if err != nil {
		return fmt.Errorf("failed to create temp key file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(password); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close key file: %w", err)
	}

	if err := os.Rename(tmpName, v.keyFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace key file: %w", err)
	}

	logging.Infof("Merchant password rotated")
	return nil
}
