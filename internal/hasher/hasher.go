// Package hasher produces streaming SHA-256 content digests used to
// identify byte-identical files.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds memory per hash regardless of file size.
const chunkSize = 1 << 20

// HashFile streams the file at path through SHA-256 and returns the digest
// as a lowercase hex string. The context is checked between chunks so a
// shutdown does not wait on a multi-gigabyte read.
func HashFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer file.Close()

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, readErr := file.Read(buf)
		if n > 0 {
			if _, err := digest.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("hash write: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("read for hashing: %w", readErr)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
