package api

// Client-facing messages. Internal causes are logged, never returned.
const (
	MsgIssueFailed      = "Unable to issue certificate."
	MsgIssued           = "Certificate issued successfully."
	MsgListFailed       = "Unable to list certificates."
	MsgNotFound         = "Certificate not found."
	MsgLookupFailed     = "Unable to retrieve certificate."
	MsgIDRequired       = "Certificate ID is required."
	MsgVerifyFailed     = "Unable to verify certificate."
	MsgInvalidReplayKey = "Idempotency-Key must be at most 64 characters."
	MsgReplayPending    = "A request with this Idempotency-Key is still being processed."
	MsgReplayMismatch   = "Idempotency-Key was already used with a different request."
)
