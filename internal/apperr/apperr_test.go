package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Invalid("missing_fields"), http.StatusBadRequest, "missing_fields"},
		{DeviceNotRegistered("visitor_device_not_registered"), http.StatusBadRequest, "visitor_device_not_registered"},
		{NotFound("visit_not_found"), http.StatusNotFound, "visit_not_found"},
		{Conflict("email_taken"), http.StatusConflict, "email_taken"},
		{Upstream("store_error", errors.New("boom")), http.StatusInternalServerError, "store_error"},
		{Upstream("store_error", fmt.Errorf("query: %w", context.DeadlineExceeded)), http.StatusGatewayTimeout, "upstream_timeout"},
		{fmt.Errorf("wrapped: %w", NotFound("homeowner_not_found")), http.StatusNotFound, "homeowner_not_found"},
		{errors.New("plain"), http.StatusInternalServerError, "server_error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "upstream_timeout"},
	}
	for _, tc := range cases {
		status, code := Classify(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("%v: expected %d/%s, got %d/%s", tc.err, tc.status, tc.code, status, code)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("approve: %w", DeviceNotRegistered("visitor_device_not_registered"))
	if !IsKind(err, KindDeviceNotRegistered) {
		t.Fatalf("expected device kind")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("did not expect not found kind")
	}
}
