package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeRemoteCall, status: http.StatusBadGateway, publicMsg: "external service call failed", detailsOK: true},
		{code: CodeInvariant, status: http.StatusBadGateway, publicMsg: "external service returned an unusable response"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownFallsBackToInternal(t *testing.T) {
	if meta := MetadataFor(Code("nope")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("insert refused")
	err := Wrap(CodeRemoteCall, cause, "insert refused")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if !HasCode(wrapped, CodeRemoteCall) {
		t.Fatalf("expected code to be found through wrapping")
	}
	if HasCode(cause, CodeRemoteCall) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestShorthandConstructors(t *testing.T) {
	if Validation("x").Code() != CodeValidation {
		t.Fatalf("expected validation code")
	}
	if Invariant("insert returned no data").Message() != "insert returned no data" {
		t.Fatalf("unexpected invariant message")
	}
}
