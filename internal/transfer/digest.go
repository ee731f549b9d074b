package transfer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest computes the lowercase hex MD5 digest of the file at path, reading
// in DefaultChunkSize chunks so memory use is bounded by the chunk size
// regardless of file size. The digest of an empty file is still defined.
//
// Send hashes incrementally while streaming and does not call this; Digest
// exists for verifying a file independently of a transfer.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", E(KindOpen, "open "+path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, DefaultChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", E(KindOpen, "read "+path, fmt.Errorf("hashing: %w", err))
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
