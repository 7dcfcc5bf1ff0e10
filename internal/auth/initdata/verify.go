package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
)

// Key material for deriving the verification secret from the bot token,
// fixed by the Mini Apps protocol.
const derivationKey = "WebAppData"

// Fields holds the launch payload pairs that remain after the signature
// field has been stripped. Values stay as the raw strings that were signed;
// JSON-bearing fields are decoded only after the signature is accepted.
type Fields map[string]string

// Verifier checks launch payload signatures against a secret key derived
// once from the shared bot token.
type Verifier struct {
	secretKey []byte
}

// NewVerifier derives the verification key. An empty bot token is a
// configuration error, not a per-request condition.
func NewVerifier(botToken string) (*Verifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("initdata: bot token is not set")
	}
	mac := hmac.New(sha256.New, []byte(derivationKey))
	mac.Write([]byte(botToken))
	return &Verifier{secretKey: mac.Sum(nil)}, nil
}

// Verify checks that raw init data carries a valid signature in its hash
// field and returns the remaining fields. A payload without a hash field is
// treated as carrying an empty signature and always fails.
func (v *Verifier) Verify(raw string) (Fields, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, customErrors.NewMalformedPayload("bad query encoding")
	}

	claimed := ""
	if h := values["hash"]; len(h) > 0 {
		claimed = h[len(h)-1]
	}
	delete(values, "hash")

	computed := v.signature(values)
	// hmac.Equal сравнивает за константное время
	if claimed == "" || !hmac.Equal([]byte(computed), []byte(claimed)) {
		return nil, customErrors.ErrInvalidSignature
	}

	fields := make(Fields, len(values))
	for k, vs := range values {
		fields[k] = vs[len(vs)-1]
	}
	return fields, nil
}

// signature renders the canonical check-string (fields sorted by key, joined
// as key=value with \n) and returns its keyed hash as lowercase hex.
func (v *Verifier) signature(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	first := true
	for _, k := range keys {
		for _, val := range values[k] {
			if !first {
				sb.WriteByte('\n')
			}
			first = false
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(val)
		}
	}

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces the signature the platform would attach to the given fields.
// Used by tests and local tooling to mint valid payloads.
func Sign(values url.Values, botToken string) string {
	v, err := NewVerifier(botToken)
	if err != nil {
		return ""
	}
	clone := url.Values{}
	for k, vs := range values {
		if k == "hash" {
			continue
		}
		clone[k] = vs
	}
	return v.signature(clone)
}
