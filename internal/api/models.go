package api

import (
	"github.com/swissborg/chainscribe-ledger/internal/ledger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type MessageResp struct {
	Message string `json:"message"`
}

type ListCertsResponse struct {
	Certificates []ledger.Certificate `json:"certificates"`
}

type GetCertResponse struct {
	Certificate *ledger.Certificate `json:"certificate"`
}

type IssueCertResponse struct {
	Certificate *ledger.Certificate `json:"certificate"`
	Message     string              `json:"message"`
}

type VerifyCertRequest struct {
	ID string `json:"id" validate:"required"`
}

type replayKey struct {
	Key string `validate:"omitempty,max=64"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
