package predict

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const dataURIPrefix = "data:image/jpeg;base64,"

// JPEG qualities used for outgoing frames.
const (
	DefaultQuality = 70
	ReducedQuality = 50
	// SlowProcessing is the average round trip above which frames are sent at ReducedQuality.
	SlowProcessing = 100 * time.Millisecond
)

// EncodeDataURI wraps JPEG bytes into a base64 data URI.
func EncodeDataURI(jpeg []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(jpeg)
}

// DecodeDataURI extracts the payload from a data URI. A bare base64 string is accepted too.
func DecodeDataURI(uri string) ([]byte, error) {
	payload := uri
	if i := strings.IndexByte(uri, ','); i >= 0 {
		if !strings.HasPrefix(uri, "data:") {
			return nil, errors.New("not a data URI")
		}
		payload = uri[i+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// QualityFor picks the JPEG quality for the current average processing time.
func QualityFor(avg time.Duration) int {
	if avg > SlowProcessing {
		return ReducedQuality
	}
	return DefaultQuality
}
