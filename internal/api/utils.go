package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/labstack/echo/v4"
)

// decodeBody reads a JSON request body into v. Unlike echo's Bind it fails on
// an empty body (io.EOF).
func decodeBody(c echo.Context, v any) error {
	return json.NewDecoder(c.Request().Body).Decode(v)
}

// requestFingerprint identifies an issue request so a reused Idempotency-Key
// can be matched against the request that first claimed it.
func requestFingerprint(req any) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
