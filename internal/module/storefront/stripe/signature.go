package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// SignatureHeader is the header Stripe sends webhook signatures in, shaped as
// "t=<unix>,v1=<hex hmac>[,v1=...]".
const SignatureHeader = "Stripe-Signature"

var errInvalidSignature = errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "webhook signature verification failed")

// VerifySignature checks the HMAC-SHA256 signature of a webhook payload
// against the endpoint secret. Timestamps older than tolerance are rejected to
// limit replay.
func VerifySignature(payload []byte, header string, secret string, tolerance time.Duration, now time.Time) error {
	var timestamp int64
	var signatures [][]byte

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}

		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return errInvalidSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return errInvalidSignature
	}

	if tolerance > 0 && now.Sub(time.Unix(timestamp, 0)) > tolerance {
		return errInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return errInvalidSignature
}
