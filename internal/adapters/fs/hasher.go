package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes xxhash digests of merge inputs and outputs.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the hash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (string, error) {
	sum, err := h.fileHash(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", sum), nil
}

// ComputeInputHash computes a single hash over the paths and contents of the
// given files. The order of paths is significant.
func (h *Hasher) ComputeInputHash(paths []string) (string, error) {
	digest := xxhash.New()
	for _, path := range paths {
		_, _ = digest.WriteString(path)
		_, _ = digest.Write([]byte{0})

		sum, err := h.fileHash(path)
		if err != nil {
			return "", err
		}
		if err := binary.Write(digest, binary.LittleEndian, sum); err != nil {
			return "", zerr.Wrap(err, domain.ErrFileHashFailed.Error())
		}
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func (h *Hasher) fileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return digest.Sum64(), nil
}
