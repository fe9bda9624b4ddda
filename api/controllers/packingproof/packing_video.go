package packingproof

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/api/controllers/actorcontext"
	"github.com/risbow/risbow-backend/api/responses"
	"github.com/risbow/risbow-backend/api/validators"
	internalproof "github.com/risbow/risbow-backend/internal/packingproof"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
)

const (
	videoField = "video"
	// multipart framing and headers on top of the video itself
	formOverhead = 1 << 20
)

type Uploader interface {
	UploadPackingVideo(ctx context.Context, input internalproof.UploadInput) (*internalproof.UploadResult, error)
}

type Signer interface {
	GetSignedVideoURLForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*internalproof.SignedVideo, error)
}

// Upload accepts a multipart packing video for one of the vendor's orders.
func Upload(svc Uploader, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "packing proof service unavailable"))
			return
		}
		vendorID, err := actorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
		file, header, err := r.FormFile(videoField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "video exceeds the upload limit"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "video file is required"))
			return
		}
		defer file.Close()

		result, err := svc.UploadPackingVideo(r.Context(), internalproof.UploadInput{
			VendorID: vendorID,
			UserID:   userID,
			OrderID:  orderID,
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Body:     file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CustomerVideo returns a short-lived signed URL for the customer's packing video.
func CustomerVideo(svc Signer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "packing proof service unavailable"))
			return
		}
		userID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := svc.GetSignedVideoURLForCustomer(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, video)
	}
}
