package tuya

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign produces the vendor request signature for one call. The input is
// clientID + token + timestamp followed by
// METHOD \n sha256(body) \n "" \n path, HMAC-SHA256 over the whole string
// with the account secret, hex uppercased. The concatenation order and the
// empty middle line are part of the vendor contract and must not change.
func Sign(clientID, secret, method, path, token, body, ts string) string {
	digest := sha256.Sum256([]byte(body))
	stringToSign := strings.Join([]string{
		strings.ToUpper(method),
		hex.EncodeToString(digest[:]),
		"",
		path,
	}, "\n")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(clientID + token + ts + stringToSign))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
