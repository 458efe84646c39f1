package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Signature headers set on signed requests.
const (
	HeaderTimestamp = "X-Alerthub-Timestamp"
	HeaderSignature = "X-Alerthub-Signature"
)

const signaturePrefix = "sha256="

// Signer signs webhook bodies with HMAC-SHA256 so receivers can check
// their origin. The signed string is "<unix timestamp>.<body>".
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a signer for secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign returns the signature header value for body at timestamp.
func (s *Signer) Sign(body []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body at timestamp and the
// timestamp is within tolerance of now. A zero tolerance skips the age check.
func (s *Signer) Verify(body []byte, timestamp int64, signature string, tolerance time.Duration) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	if tolerance > 0 {
		age := s.now().Sub(time.Unix(timestamp, 0))
		if age < -tolerance || age > tolerance {
			return false
		}
	}
	return hmac.Equal([]byte(signature), []byte(s.Sign(body, timestamp)))
}

func (s *Signer) headers(body []byte) (timestamp, signature string) {
	ts := s.now().Unix()
	return strconv.FormatInt(ts, 10), s.Sign(body, ts)
}
