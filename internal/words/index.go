package words

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// WordIndex returns a deterministic index for key using HMAC(salt, key) % n.
func WordIndex(key, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
