package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// txHashBytes is the number of digest bytes shown as the transaction hash,
// i.e. twelve hex characters.
const txHashBytes = 6

const isoMillis = "2006-01-02T15:04:05.000Z"

// digest hashes the request as received together with the issuance instant
// in milliseconds. Identical requests issued at different instants therefore
// get different hashes.
func digest(req IssueRequest, now time.Time) ([sha256.Size]byte, error) {
	payload, err := encodePayload(req)
	if err != nil {
		return [sha256.Size]byte{}, err
	}

	h := sha256.New()
	h.Write(payload)
	h.Write([]byte(strconv.FormatInt(now.UnixMilli(), 10)))

	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// encodePayload serializes req compactly without HTML escaping. Optional
// string fields left empty are omitted.
func encodePayload(req IssueRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("encode issue request: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func transactionHash(sum [sha256.Size]byte) string {
	return hexutil.Encode(sum[:txHashBytes])
}

// Layouts accepted for a caller supplied issue date. Zoneless date-times are
// read in local time, bare dates in UTC.
var (
	zonedLayouts    = []string{time.RFC3339Nano, time.RFC3339}
	zonelessLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", time.DateTime}
)

// resolveIssueDate normalizes raw to ISO-8601 UTC with millisecond precision,
// falling back to now when raw is empty or unparseable.
func resolveIssueDate(raw string, now time.Time) string {
	if t, ok := parseIssueDate(raw); ok {
		return t.UTC().Format(isoMillis)
	}
	return now.UTC().Format(isoMillis)
}

func parseIssueDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
