package api

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/chainscribe-ledger/internal/idempotency"
	"github.com/swissborg/chainscribe-ledger/internal/ledger"
)

// Ledger is the certificate store the handlers delegate to.
type Ledger interface {
	ListCertificates() ([]ledger.Certificate, error)
	GetCertificate(id string) (*ledger.Certificate, error)
	IssueCertificate(req ledger.IssueRequest) (*ledger.Certificate, error)
	VerifyCertificate(id string) (*ledger.VerifyResult, error)
}

type Handlers struct {
	store   Ledger
	replays *idempotency.Cache
}

// NewHandlers builds the HTTP handlers. replays may be nil, in which case the
// Idempotency-Key header is ignored.
func NewHandlers(store Ledger, replays *idempotency.Cache) *Handlers {
	return &Handlers{
		store:   store,
		replays: replays,
	}
}

func (h *Handlers) ListCerts(c echo.Context) error {
	certs, err := h.store.ListCertificates()
	if err != nil {
		log.WithError(err).Error("list certificates")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgListFailed})
	}

	return c.JSON(http.StatusOK, ListCertsResponse{Certificates: certs})
}

func (h *Handlers) GetCert(c echo.Context) error {
	// an id that does not survive unescaping cannot be in the ledger
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		log.WithError(err).WithField("certID", c.Param("id")).Info("undecodable certificate id")
		return c.JSON(http.StatusNotFound, MessageResp{Message: MsgNotFound})
	}

	log.WithField("certID", id).Info("get certificate")

	cert, err := h.store.GetCertificate(id)
	if err != nil {
		log.WithError(err).WithField("certID", id).Error("get certificate")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgLookupFailed})
	}
	if cert == nil {
		return c.JSON(http.StatusNotFound, MessageResp{Message: MsgNotFound})
	}

	return c.JSON(http.StatusOK, GetCertResponse{Certificate: cert})
}

func (h *Handlers) IssueCert(c echo.Context) error {
	key := c.Request().Header.Get(HeaderIdempotencyKey)
	if err := c.Validate(replayKey{Key: key}); err != nil {
		log.WithError(err).Error("validate idempotency key")
		return c.JSON(http.StatusBadRequest, MessageResp{Message: MsgInvalidReplayKey})
	}

	var req ledger.IssueRequest
	if err := decodeBody(c, &req); err != nil {
		log.WithError(err).Error("decode issue cert request")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}

	log.
		WithField("ownerName", req.OwnerName).
		WithField("courseName", req.CourseName).
		Info("request")

	if key == "" || h.replays == nil {
		return h.issue(c, req)
	}

	fingerprint, err := requestFingerprint(req)
	if err != nil {
		log.WithError(err).Error("fingerprint issue cert request")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}

	entry, reserved, err := h.replays.Reserve(key, fingerprint)
	if err != nil {
		log.WithError(err).WithField("idempotencyKey", key).Error("reserve idempotency key")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}
	if !reserved {
		return h.replay(c, key, fingerprint, entry)
	}

	cert, err := h.store.IssueCertificate(req)
	if err != nil {
		log.WithError(err).Error("issue certificate")
		if err := h.replays.Forget(key); err != nil {
			log.WithError(err).WithField("idempotencyKey", key).Error("release idempotency key")
		}
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}

	logIssued(cert)

	if err := h.replays.Complete(key, fingerprint, cert.ID); err != nil {
		log.WithError(err).WithField("idempotencyKey", key).Error("complete idempotency key")
	}

	return c.JSON(http.StatusCreated, IssueCertResponse{Certificate: cert, Message: MsgIssued})
}

func (h *Handlers) issue(c echo.Context, req ledger.IssueRequest) error {
	cert, err := h.store.IssueCertificate(req)
	if err != nil {
		log.WithError(err).Error("issue certificate")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}

	logIssued(cert)

	return c.JSON(http.StatusCreated, IssueCertResponse{Certificate: cert, Message: MsgIssued})
}

// replay answers a request whose key is already held by an earlier request.
func (h *Handlers) replay(c echo.Context, key, fingerprint string, entry idempotency.Entry) error {
	logger := log.WithField("idempotencyKey", key)

	if entry.Fingerprint != fingerprint {
		logger.Warn("idempotency key reused with a different request")
		return c.JSON(http.StatusUnprocessableEntity, MessageResp{Message: MsgReplayMismatch})
	}
	if entry.Pending() {
		logger.Info("idempotency key still pending")
		return c.JSON(http.StatusConflict, MessageResp{Message: MsgReplayPending})
	}

	cert, err := h.store.GetCertificate(entry.CertID)
	if err != nil || cert == nil {
		logger.WithError(err).WithField("certID", entry.CertID).Error("load replayed certificate")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgIssueFailed})
	}

	logger.WithField("certID", cert.ID).Info("replaying issued certificate")
	return c.JSON(http.StatusOK, IssueCertResponse{Certificate: cert, Message: MsgIssued})
}

func logIssued(cert *ledger.Certificate) {
	log.
		WithField("certID", cert.ID).
		WithField("contentHash", cert.ContentHash).
		Info("certificate issued")
}

func (h *Handlers) VerifyCert(c echo.Context) error {
	var req VerifyCertRequest

	if err := decodeBody(c, &req); err != nil {
		log.WithError(err).Error("decode verify cert request")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgVerifyFailed})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResp{Message: MsgIDRequired})
	}

	log.WithField("certID", req.ID).Info("verify certificate")

	res, err := h.store.VerifyCertificate(req.ID)
	if err != nil {
		log.WithError(err).WithField("certID", req.ID).Error("verify certificate")
		return c.JSON(http.StatusInternalServerError, MessageResp{Message: MsgVerifyFailed})
	}

	status := http.StatusOK
	if !res.IsValid {
		status = http.StatusNotFound
	}
	return c.JSON(status, res)
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
