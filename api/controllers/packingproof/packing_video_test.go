package packingproof

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/api/middleware"
	internalproof "github.com/risbow/risbow-backend/internal/packingproof"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

type stubUploader struct {
	got  internalproof.UploadInput
	data []byte
}

func (s *stubUploader) UploadPackingVideo(ctx context.Context, input internalproof.UploadInput) (*internalproof.UploadResult, error) {
	s.got = input
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.data = data
	return &internalproof.UploadResult{Success: true, ProofID: uuid.New()}, nil
}

type stubSigner struct {
	err error
}

func (s stubSigner) GetSignedVideoURLForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*internalproof.SignedVideo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &internalproof.SignedVideo{URL: "https://storage.example/signed", ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func multipartVideo(t *testing.T, payload []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="video"; filename="pack.mp4"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func vendorRequest(body io.Reader, contentType string, orderID, vendorID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.ActorRoleVendor))
	ctx = middleware.WithVendorID(ctx, vendorID.String())
	return req.WithContext(ctx)
}

func TestUploadStreamsVideo(t *testing.T) {
	orderID := uuid.New()
	vendorID := uuid.New()
	payload := []byte("fake-mp4-bytes")
	body, ct := multipartVideo(t, payload, "video/mp4")

	svc := &stubUploader{}
	resp := httptest.NewRecorder()
	Upload(svc, 1<<20, nil).ServeHTTP(resp, vendorRequest(body, ct, orderID, vendorID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.got.OrderID != orderID || svc.got.VendorID != vendorID {
		t.Fatalf("unexpected ids %+v", svc.got)
	}
	if svc.got.MimeType != "video/mp4" || svc.got.FileName != "pack.mp4" {
		t.Fatalf("unexpected file metadata %+v", svc.got)
	}
	if svc.got.Size != int64(len(payload)) || !bytes.Equal(svc.data, payload) {
		t.Fatalf("video body not forwarded")
	}
}

func TestUploadRequiresVideoField(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no file")
	_ = mw.Close()

	resp := httptest.NewRecorder()
	Upload(&stubUploader{}, 1<<20, nil).ServeHTTP(resp, vendorRequest(&buf, mw.FormDataContentType(), uuid.New(), uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUploadRejectsCustomers(t *testing.T) {
	body, ct := multipartVideo(t, []byte("x"), "video/mp4")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(middleware.WithRole(middleware.WithUserID(req.Context(), uuid.NewString()), string(enums.ActorRoleCustomer)))

	resp := httptest.NewRecorder()
	Upload(&stubUploader{}, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCustomerVideo(t *testing.T) {
	build := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderId", uuid.NewString())
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = middleware.WithUserID(ctx, uuid.NewString())
		return req.WithContext(ctx)
	}

	resp := httptest.NewRecorder()
	CustomerVideo(stubSigner{}, nil).ServeHTTP(resp, build())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("https://storage.example/signed")) {
		t.Fatalf("expected signed url, got %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	CustomerVideo(stubSigner{err: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")}, nil).ServeHTTP(resp, build())
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
