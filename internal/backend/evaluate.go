// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

var _ loader.Evaluator = (*HTTP)(nil)

// Evaluate posts query to the query endpoint and decodes the result groups.
// The server answers {"results":[...]} on success and {"error":"..."} when it
// rejects the query.
func (h *HTTP) Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error) {
	resp, err := h.request(ctx).
		SetHeader("X-Session-ID", h.sessionID).
		SetFormData(map[string]string{"query": query}).
		Post(h.url(h.endpoints.Query))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(apperrors.EvaluationFailed, "evaluator unreachable", err)
	}
	h.log.Debug("query evaluated",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()))

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, apperrors.New(apperrors.AuthRequired, "the evaluator requires login")
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		if resp.StatusCode() >= http.StatusBadRequest {
			return nil, apperrors.New(apperrors.EvaluationFailed, statusMessage(resp.StatusCode(), resp.Body()))
		}
		return nil, apperrors.Wrap(apperrors.EvaluationFailed, "malformed evaluator response", err)
	}
	if msg, ok := body["error"]; ok && msg != nil {
		return nil, apperrors.New(apperrors.EvaluationFailed, fmt.Sprint(msg))
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, apperrors.New(apperrors.EvaluationFailed, statusMessage(resp.StatusCode(), resp.Body()))
	}

	groups, err := worksheet.DecodeResults(body["results"])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.EvaluationFailed, "malformed evaluator response", err)
	}
	return groups, nil
}

func statusMessage(code int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		return fmt.Sprintf("server returned %d", code)
	}
	return fmt.Sprintf("server returned %d: %s", code, text)
}
