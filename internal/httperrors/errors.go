// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly error handling for requests to the
// notebook server.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"mathnb/cli/internal/logging"
)

// Class is the detected cause of a network failure.
type Class string

const (
	ClassTimeout Class = "timeout"
	ClassDNS     Class = "dns"
	ClassRefused Class = "refused"
	ClassTLS     Class = "tls"
	ClassServer  Class = "server"
	ClassOther   Class = "other"
)

// Report is the presentation of a network failure.
type Report struct {
	Class Class
	Title string
	Lines []string
	// Details is the masked, abbreviated technical message.
	Details string
}

// Classify detects the cause of err.
func Classify(err error) Class {
	switch {
	case isTimeoutError(err):
		return ClassTimeout
	case isDNSError(err):
		return ClassDNS
	case isConnectionRefusedError(err):
		return ClassRefused
	case isSSLError(err):
		return ClassTLS
	case isServerError(err.Error()):
		return ClassServer
	}
	return ClassOther
}

// Describe builds the report for err raised while doing context against host.
func Describe(err error, context, host string) Report {
	r := Report{Class: Classify(err), Details: abbreviate(logging.Mask(err.Error()))}
	switch r.Class {
	case ClassTimeout:
		r.Title = "Connection timeout while " + context
		r.Lines = []string{
			"The server took too long to respond. This could mean:",
			"  • A long-running evaluation (raise MATHNB_EVAL_TIMEOUT)",
			"  • Server is under heavy load",
			"  • Slow or filtered network",
		}
	case ClassDNS:
		r.Title = "Cannot resolve server address while " + context
		r.Lines = []string{
			fmt.Sprintf("Unable to look up %s. Please check:", host),
			"  • Your internet connection is working",
			"  • The --server URL or MATHNB_SERVER is spelled correctly",
		}
	case ClassRefused:
		r.Title = "Connection refused while " + context
		r.Lines = []string{
			fmt.Sprintf("Nothing is accepting connections at %s. This could mean:", host),
			"  • The notebook server is not running",
			"  • Wrong server address or port",
		}
	case ClassTLS:
		r.Title = "Secure connection failed while " + context
		r.Lines = []string{
			"Cannot establish a secure connection. This could mean:",
			"  • Certificate issue on the server",
			"  • Network proxy interfering with HTTPS",
			"  • System clock is incorrect",
		}
	case ClassServer:
		r.Title = "Server error while " + context
		r.Lines = []string{
			fmt.Sprintf("%s encountered an internal error.", host),
			"Your session is unchanged; please try again in a few minutes.",
		}
	default:
		r.Title = fmt.Sprintf("Cannot reach %s while %s", host, context)
		r.Lines = []string{
			"Please check:",
			"  • Your internet connection",
			"  • Whether the server is accessible from your network",
		}
	}
	return r
}

// Fprint writes the report with its troubleshooting hints to w.
func (r Report) Fprint(w io.Writer) {
	pterm.Fprintln(w, pterm.Error.Sprint(r.Title))
	for _, l := range r.Lines {
		pterm.Fprintln(w, l)
	}
	if r.Details != "" {
		pterm.Fprintln(w, pterm.NewStyle(pterm.FgGray).Sprint("Technical details: "+r.Details))
	}
}

// IsNetworkError reports whether err looks like a transport failure rather
// than an answer from the server.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr) || Classify(err) != ClassOther
}

func abbreviate(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error indicates a server-side problem (5xx errors).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	for _, s := range []string{"returned 500", "returned 502", "returned 503", "returned 504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
