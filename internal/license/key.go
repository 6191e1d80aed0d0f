package license

import "strings"

// keyDelimiter separates the four fields of a license key.
const keyDelimiter = "-"

const keyFieldCount = 4

// keyFields are the parts of a license key.
type keyFields struct {
	ProductID string
	Token     string
	Checksum  string
	Signature string
}

func (f keyFields) String() string {
	return strings.Join([]string{f.ProductID, f.Token, f.Checksum, f.Signature}, keyDelimiter)
}

// signedPayload is the text the signature covers.
func (f keyFields) signedPayload() string {
	return f.Token + f.Checksum
}

// splitKey breaks a key into its fields. It fails unless there are exactly
// four fields and none is empty.
func splitKey(key string) (keyFields, bool) {
	parts := strings.Split(key, keyDelimiter)
	if len(parts) != keyFieldCount {
		return keyFields{}, false
	}
	for _, p := range parts {
		if p == "" {
			return keyFields{}, false
		}
	}
	return keyFields{
		ProductID: parts[0],
		Token:     parts[1],
		Checksum:  parts[2],
		Signature: parts[3],
	}, true
}
