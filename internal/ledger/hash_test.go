package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayloadKeepsHTMLCharacters(t *testing.T) {
	payload, err := encodePayload(IssueRequest{
		OwnerName:  "A&B <x>",
		CourseName: "C",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ownerName":"A&B <x>","courseName":"C"}`, string(payload))
}

func TestEncodePayloadOmitsEmptyOptionals(t *testing.T) {
	payload, err := encodePayload(IssueRequest{
		OwnerName:  "Ada",
		CourseName: "Math",
		Issuer:     "",
		Metadata:   &RequestMetadata{Description: strPtr("")},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ownerName":"Ada","courseName":"Math","metadata":{"description":""}}`, string(payload))
}

func TestDigestOverUnescapedPayload(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	req := IssueRequest{OwnerName: "Q&A <team>", CourseName: "Ops"}

	sum, err := digest(req, now)
	require.NoError(t, err)

	want := sha256.Sum256([]byte(`{"ownerName":"Q&A <team>","courseName":"Ops"}` + strconv.FormatInt(now.UnixMilli(), 10)))
	assert.Equal(t, hex.EncodeToString(want[:]), hex.EncodeToString(sum[:]))
}
