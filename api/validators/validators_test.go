package validators

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

type shipBody struct {
	TrackingID string `json:"trackingId" validate:"required,notblank,max=16"`
	Items      []struct {
		Quantity int `json:"quantity" validate:"min=1"`
	} `json:"items" validate:"dive"`
}

func decode(t *testing.T, body string) (*shipBody, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dst shipBody
	err := DecodeJSONBody(req, &dst)
	return &dst, err
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	got, err := decode(t, `{"trackingId":"TRK-1","items":[{"quantity":2}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TrackingID != "TRK-1" || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"trackingId":"x","carrier":"dhl"}`,
		"blank":         `{"trackingId":"   "}`,
		"trailing":      `{"trackingId":"x"}{"trackingId":"y"}`,
		"nested":        `{"trackingId":"x","items":[{"quantity":0}]}`,
	}
	for name, body := range cases {
		_, err := decode(t, body)
		var typed *pkgerrors.Error
		if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestNestedFieldPath(t *testing.T) {
	_, err := decode(t, `{"trackingId":"x","items":[{"quantity":0}]}`)
	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected map details, got %T", typed.Details())
	}
	if _, ok := details["items[0].quantity"]; !ok {
		t.Fatalf("expected nested path, got %v", details)
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	if got := SanitizeString("  héllo  ", 2); got != "h" {
		t.Fatalf("expected split rune to be dropped, got %q", got)
	}
	if got := SanitizeString(" ok ", 0); got != "ok" {
		t.Fatalf("expected trim only, got %q", got)
	}
}
