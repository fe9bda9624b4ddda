package packingproof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

// MissingProofMessage is returned when a PACKED or SHIPPED transition has no video on file.
const MissingProofMessage = "Packing video proof is mandatory before order can be shipped"

const (
	defaultKeyPrefix = "packing-proofs"
	defaultURLTTL    = 15 * time.Minute
)

type orderReader interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type objectStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	DeleteObject(ctx context.Context, bucket, object string) error
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// UploadInput carries one vendor video upload.
type UploadInput struct {
	VendorID uuid.UUID
	UserID   uuid.UUID
	OrderID  uuid.UUID
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

type UploadResult struct {
	Success bool      `json:"success"`
	ProofID uuid.UUID `json:"proofId"`
}

type SignedVideo struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ServiceParams struct {
	Repository    Repository
	Orders        orderReader
	Storage       objectStore
	Tx            txRunner
	Events        eventEmitter
	Metrics       *metrics.Domain
	Logger        *logger.Logger
	Bucket        string
	KeyPrefix     string
	MaxVideoBytes int64
	URLTTL        time.Duration
}

type Service struct {
	repo     Repository
	orders   orderReader
	storage  objectStore
	tx       txRunner
	events   eventEmitter
	metrics  *metrics.Domain
	logg     *logger.Logger
	bucket   string
	prefix   string
	maxBytes int64
	urlTTL   time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("packing proof repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.MaxVideoBytes <= 0 {
		return nil, fmt.Errorf("max video size must be positive")
	}
	prefix := strings.Trim(params.KeyPrefix, "/")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := params.URLTTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &Service{
		repo:     params.Repository,
		orders:   params.Orders,
		storage:  params.Storage,
		tx:       params.Tx,
		events:   params.Events,
		metrics:  params.Metrics,
		logg:     params.Logger,
		bucket:   params.Bucket,
		prefix:   prefix,
		maxBytes: params.MaxVideoBytes,
		urlTTL:   ttl,
	}, nil
}

func (s *Service) HasProof(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.repo.ExistsForOrder(ctx, orderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check packing proof")
	}
	return ok, nil
}

// EnsureProof is the gate consulted before an order may become PACKED or SHIPPED.
func (s *Service) EnsureProof(ctx context.Context, orderID uuid.UUID) error {
	ok, err := s.HasProof(ctx, orderID)
	if err != nil {
		return err
	}
	if !ok {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "packing proof missing")
		return pkgerrors.New(pkgerrors.CodeValidation, MissingProofMessage)
	}
	return nil
}

func (s *Service) UploadPackingVideo(ctx context.Context, input UploadInput) (*UploadResult, error) {
	result, err := s.upload(ctx, input)
	if err != nil {
		s.metrics.ObservePackingUpload("rejected")
		return nil, err
	}
	s.metrics.ObservePackingUpload("ok")
	return result, nil
}

func (s *Service) upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "video file is required")
	}
	mimeType, err := parseVideoMime(input.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Only video files are allowed")
	}
	if input.Size <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "video file is empty")
	}
	if input.Size > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("video exceeds the %dMB limit", s.maxBytes>>20))
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.VendorID != input.VendorID && !order.Items.HasVendor(input.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
	}

	objectPath := fmt.Sprintf("%s/%s/%s%s", s.prefix, order.ID, uuid.NewString(), extensionFor(input.FileName, mimeType))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":  order.ID.String(),
		"vendor_id": input.VendorID.String(),
		"path":      objectPath,
	})

	if err := s.storage.Upload(ctx, s.bucket, objectPath, mimeType, input.Body); err != nil {
		s.logg.Error(logCtx, "packing video upload failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload packing video")
	}

	var saved *models.OrderPackingProof
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		proof, err := s.repo.WithTx(tx).Upsert(ctx, &models.OrderPackingProof{
			OrderID:          order.ID,
			VendorID:         input.VendorID,
			UploadedByUserID: input.UserID,
			VideoPath:        objectPath,
			VideoMime:        mimeType,
			VideoSizeBytes:   input.Size,
		})
		if err != nil {
			return err
		}
		saved = proof
		if s.events == nil {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPackingProofUploaded,
			AggregateType: enums.AggregatePackingProof,
			AggregateID:   proof.ID,
			Actor: &outbox.ActorRef{
				UserID:   input.UserID,
				VendorID: &input.VendorID,
				Role:     string(enums.ActorRoleVendor),
			},
			Data: payloads.PackingProofUploadedEvent{
				OrderID:  order.ID,
				ProofID:  proof.ID,
				VendorID: input.VendorID,
				Path:     objectPath,
			},
		})
	})
	if err != nil {
		// the object is orphaned without its row
		cleanupErr := s.storage.DeleteObject(ctx, s.bucket, objectPath)
		combined := multierr.Append(err, cleanupErr)
		s.logg.Error(logCtx, "persist packing proof failed", combined)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "persist packing proof")
	}

	s.logg.Info(logCtx, "packing proof stored")
	return &UploadResult{Success: true, ProofID: saved.ID}, nil
}

// GetSignedVideoURLForCustomer lets the buyer review the packing video of their own order.
func (s *Service) GetSignedVideoURLForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*SignedVideo, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	proof, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "packing proof not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load packing proof")
	}

	url, err := s.storage.SignedReadURL(s.bucket, proof.VideoPath, s.urlTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign packing video url")
	}
	return &SignedVideo{URL: url, ExpiresAt: time.Now().UTC().Add(s.urlTTL)}, nil
}
