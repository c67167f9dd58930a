// Package ledger stores issued certificates in a single JSON document.
//
// Every operation reads the whole document from disk and issuance rewrites it
// in full. Without WithIssueQueue concurrent issuance is a plain
// read-modify-write and may lose records.
package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swissborg/chainscribe-ledger/internal/taskqueue"
)

const filePerm = 0o644

type Store struct {
	path    string
	network string
	queue   *taskqueue.Queue
	now     func() time.Time
	token   func() string
}

type Option func(*Store)

// WithNetwork overrides the synthetic network label put on new certificates.
func WithNetwork(network string) Option {
	return func(s *Store) {
		if network != "" {
			s.network = network
		}
	}
}

// WithIssueQueue runs every issuance on the given queue so that
// read-modify-write cycles never overlap within the process.
func WithIssueQueue(q *taskqueue.Queue) Option {
	return func(s *Store) {
		s.queue = q
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTokenSource replaces the random token the certificate id suffix is cut
// from. The token must be at least 8 hex characters long.
func WithTokenSource(token func() string) Option {
	return func(s *Store) {
		s.token = token
	}
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		network: DefaultNetwork,
		now:     time.Now,
		token:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) ListCertificates() ([]Certificate, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Certificates, nil
}

// GetCertificate returns nil without error when no record has the given id.
func (s *Store) GetCertificate(id string) (*Certificate, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	for i := range doc.Certificates {
		if doc.Certificates[i].ID == id {
			cert := doc.Certificates[i]
			return &cert, nil
		}
	}
	return nil, nil
}

func (s *Store) VerifyCertificate(id string) (*VerifyResult, error) {
	cert, err := s.GetCertificate(id)
	if err != nil {
		return nil, err
	}

	if cert == nil {
		return &VerifyResult{
			IsValid: false,
			Message: "Certificate not found in ledger.",
		}, nil
	}

	return &VerifyResult{
		IsValid:     true,
		Certificate: cert,
		Message:     fmt.Sprintf("Certificate %s is registered on %s.", id, cert.Blockchain.Network),
	}, nil
}

func (s *Store) IssueCertificate(req IssueRequest) (*Certificate, error) {
	if s.queue == nil {
		return s.issue(req)
	}
	return taskqueue.Run(s.queue, func() (*Certificate, error) {
		return s.issue(req)
	})
}

func (s *Store) issue(req IssueRequest) (*Certificate, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	now := s.now()

	sum, err := digest(req, now)
	if err != nil {
		return nil, err
	}
	hash := hex.EncodeToString(sum[:])

	cert := Certificate{
		ID:          certificateID(now, s.token()),
		OwnerName:   req.OwnerName,
		CourseName:  req.CourseName,
		Issuer:      req.Issuer,
		IssueDate:   resolveIssueDate(req.IssueDate, now),
		ContentHash: hash,
		Blockchain: Blockchain{
			Network:         s.network,
			TransactionHash: transactionHash(sum),
			BlockNumber:     now.Unix(),
		},
		Metadata: Metadata{
			Description: DefaultDescription,
		},
	}
	if cert.Issuer == "" {
		cert.Issuer = DefaultIssuer
	}
	if req.Metadata != nil {
		if req.Metadata.Description != nil {
			cert.Metadata.Description = *req.Metadata.Description
		}
		if req.Metadata.MediaURL != nil {
			cert.Metadata.MediaURL = *req.Metadata.MediaURL
		}
	}

	doc.Certificates = append(doc.Certificates, cert)
	if err := s.write(doc); err != nil {
		return nil, err
	}

	return &cert, nil
}

// ensureFileExists creates an empty ledger document when none is present.
func (s *Store) ensureFileExists() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", ErrStorageFault, s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create ledger directory: %w", ErrStorageFault, err)
	}
	return s.write(document{Certificates: []Certificate{}})
}

func (s *Store) read() (document, error) {
	if err := s.ensureFileExists(); err != nil {
		return document{}, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return document{}, fmt.Errorf("%w: read %s: %w", ErrStorageFault, s.path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("%w: decode %s: %w", ErrStorageFault, s.path, err)
	}
	if doc.Certificates == nil {
		doc.Certificates = []Certificate{}
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode ledger: %w", ErrStorageFault, err)
	}
	if err := os.WriteFile(s.path, b, filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStorageFault, s.path, err)
	}
	return nil
}

func certificateID(now time.Time, token string) string {
	token = strings.ReplaceAll(token, "-", "")
	if len(token) > 8 {
		token = token[:8]
	}
	return fmt.Sprintf("CERT-%d-%s", now.Year(), strings.ToUpper(token))
}
