package smsgw

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries the callback's HMAC signature.
const SignatureHeader = "X-Gateway-Signature"

// Sign computes the status-callback signature:
// base64(HMAC-SHA1(authToken, fullURL + sorted key/value concatenation)).
// The gateway uses the first value for each repeated key.
func Sign(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func VerifySignature(authToken, fullURL, provided string, form url.Values) bool {
	expected := Sign(authToken, fullURL, form)
	return hmac.Equal([]byte(expected), []byte(provided))
}
