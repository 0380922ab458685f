package payments

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignAlgo selects the canonical-string signature scheme used by the
// aggregator/form providers.
type SignAlgo string

const (
	// SignAlgoMD5 appends "&key=SECRET" to the canonical string and MD5s it.
	SignAlgoMD5 SignAlgo = "MD5"
	// SignAlgoHMACSHA256 appends "&key=SECRET" and HMAC-SHA256s the result
	// with the secret as the HMAC key.
	SignAlgoHMACSHA256 SignAlgo = "HMAC-SHA256"
)

// CanonicalString builds the deterministic string every provider in this
// family signs: non-empty parameters sorted by key, joined as k1=v1&k2=v2,
// with sign/sign_type excluded.
func CanonicalString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || k == "sign_type" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Sign computes the uppercase-hex signature of params under secret.
func Sign(params map[string]string, secret string, algo SignAlgo) string {
	payload := CanonicalString(params) + "&key=" + secret

	switch algo {
	case SignAlgoHMACSHA256:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
	default:
		sum := md5.Sum([]byte(payload))
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	}
}

// Verify recomputes the signature over every field except sign and compares
// it with the received one. It fails closed: an unset secret or a missing
// sign field is a verification failure, never a pass-through.
func Verify(params map[string]string, secret string, algo SignAlgo) bool {
	if secret == "" {
		return false
	}
	received, ok := params["sign"]
	if !ok || received == "" {
		return false
	}
	return strings.EqualFold(Sign(params, secret, algo), received)
}
