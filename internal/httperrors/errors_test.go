package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ClassTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nb.invalid"}, ClassDNS},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ClassRefused},
		{"tls", errors.New("x509: certificate signed by unknown authority"), ClassTLS},
		{"server", errors.New("evaluation_error: server returned 502: bad gateway"), ClassServer},
		{"other", errors.New("something odd"), ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDescribeMasksDetails(t *testing.T) {
	r := Describe(errors.New("dial postgres://nb:hunter2@db/nb: connection refused"), "opening a worksheet", "db")
	assert.Equal(t, ClassRefused, r.Class)
	assert.Contains(t, r.Title, "opening a worksheet")
	assert.NotContains(t, r.Details, "hunter2")
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "nb.example.org:8443", ExtractHostFromURL("https://nb.example.org:8443/api"))
	assert.Equal(t, "server", ExtractHostFromURL("::bad"))
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
	assert.False(t, IsNetworkError(errors.New("Power::infy: Infinite expression")))
	assert.False(t, IsNetworkError(nil))
}

func TestReportFprint(t *testing.T) {
	pterm.DisableStyling()
	var buf bytes.Buffer
	Describe(errors.New("dial tcp: lookup nb.invalid: no such host: timeout"), "saving a worksheet", "nb.invalid").Fprint(&buf)

	out := buf.String()
	assert.Contains(t, out, "Connection timeout while saving a worksheet")
	assert.Contains(t, out, "Technical details: dial tcp")
}
