package license

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// tokenSeparator joins the machine id and the period inside a token.
const tokenSeparator = ":"

// tokenEncoding is the URL-safe base64 alphabet with '.' in place of '-', so a
// token never contains the key field delimiter.
var tokenEncoding = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._",
).WithPadding(base64.NoPadding).Strict()

// Encode turns a machine id and a period into a token.
func Encode(machineID string, periodDays int) string {
	return tokenEncoding.EncodeToString([]byte(machineID + tokenSeparator + strconv.Itoa(periodDays)))
}

// Decode reverses Encode. The text is split on its last separator, not the
// first, so a machine id may itself contain ':' and still round-trip.
func Decode(token string) (string, int, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	text := string(raw)
	idx := strings.LastIndex(text, tokenSeparator)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: missing separator", ErrMalformedToken)
	}

	machineID := text[:idx]
	if machineID == "" {
		return "", 0, fmt.Errorf("%w: empty machine id", ErrMalformedToken)
	}

	periodDays, err := strconv.Atoi(text[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: period is not an integer", ErrMalformedToken)
	}
	if periodDays < 0 {
		return "", 0, fmt.Errorf("%w: negative period", ErrMalformedToken)
	}

	return machineID, periodDays, nil
}
