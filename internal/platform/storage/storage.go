package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"kare/internal/platform/crypto"
)

// Service stores uploaded incapacity documents on local disk. Files get a
// random name; the original file name lives only in the documents table.
// When an encryption key is configured the bytes are sealed before writing.
type Service struct {
	dir    string
	crypto *crypto.Service
}

func New(dir string, cryptoSvc *crypto.Service) (*Service, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Service{dir: dir, crypto: cryptoSvc}, nil
}

func (s *Service) Encrypted() bool {
	return s.crypto != nil && s.crypto.Configured()
}

// Save writes data to a fresh file and returns the storage path.
func (s *Service) Save(fileName string, data []byte) (string, error) {
	name := uuid.NewString() + sanitizedExt(fileName)
	payload := data
	if s.Encrypted() {
		sealed, err := s.crypto.Encrypt(data)
		if err != nil {
			return "", err
		}
		payload = sealed
		name += ".enc"
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) Read(storedPath string) ([]byte, error) {
	if !s.contains(storedPath) {
		return nil, fmt.Errorf("stored path outside storage dir")
	}
	data, err := os.ReadFile(storedPath)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(storedPath, ".enc") {
		return s.crypto.Decrypt(data)
	}
	return data, nil
}

func (s *Service) Delete(storedPath string) error {
	if !s.contains(storedPath) {
		return fmt.Errorf("stored path outside storage dir")
	}
	err := os.Remove(storedPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Service) contains(path string) bool {
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(absPath, absDir+string(filepath.Separator))
}

func sanitizedExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return ext
	default:
		return ".bin"
	}
}
