package license

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// Checksum returns the lowercase hex MD5 of a token. It catches corruption
// only; anyone can recompute it, so it is never an authenticity check.
func Checksum(token string) string {
	sum := md5.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}

func checksumMatches(token, checksum string) bool {
	return subtle.ConstantTimeCompare([]byte(Checksum(token)), []byte(checksum)) == 1
}
