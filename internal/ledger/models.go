package ledger

const (
	DefaultIssuer      = "ChainScribe Sandbox Academy"
	DefaultDescription = "No description provided."
	DefaultNetwork     = "AuroraSim Testnet"
)

// Certificate is a single issued record. Records are append-only.
type Certificate struct {
	ID          string     `json:"id"`
	OwnerName   string     `json:"ownerName"`
	CourseName  string     `json:"courseName"`
	Issuer      string     `json:"issuer"`
	IssueDate   string     `json:"issueDate"`
	ContentHash string     `json:"contentHash"`
	Blockchain  Blockchain `json:"blockchain"`
	Metadata    Metadata   `json:"metadata"`
}

// Blockchain holds synthetic anchoring details derived from the content hash
// and the issuance instant. Nothing is written to a real network.
type Blockchain struct {
	Network         string `json:"network"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
}

type Metadata struct {
	Description string `json:"description"`
	MediaURL    string `json:"mediaUrl,omitempty"`
}

// IssueRequest is the caller supplied payload. Its JSON encoding is part of
// the content hash input, so field order and tags must stay stable.
type IssueRequest struct {
	OwnerName         string           `json:"ownerName"`
	CourseName        string           `json:"courseName"`
	Issuer            string           `json:"issuer,omitempty"`
	IssueDate         string           `json:"issueDate,omitempty"`
	Metadata          *RequestMetadata `json:"metadata,omitempty"`
	AttachmentName    string           `json:"attachmentName,omitempty"`
	AttachmentContent string           `json:"attachmentContent,omitempty"`
}

type RequestMetadata struct {
	Description *string `json:"description,omitempty"`
	MediaURL    *string `json:"mediaUrl,omitempty"`
}

// VerifyResult reports whether an id is present in the ledger. It is a lookup,
// the content hash is not recomputed.
type VerifyResult struct {
	IsValid     bool         `json:"isValid"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Message     string       `json:"message"`
}

type document struct {
	Certificates []Certificate `json:"certificates"`
}
