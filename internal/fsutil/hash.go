package fsutil

import (
	"fmt"
	"os"
	"strconv"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("devlog-entry-content-hash-key-32")

// Hash returns a 64-bit highwayhash of data
func Hash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// HashFile hashes a file's content and returns it as hex
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	sum, err := Hash(data)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return strconv.FormatUint(sum, 16), nil
}
