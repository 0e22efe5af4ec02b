// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/worksheet"
)

var _ worksheet.Store = (*HTTP)(nil)

// SaveWorksheet posts {name, content, overwrite} to the save endpoint.
// A name clash without overwrite is not an error: the result is "overwrite".
func (h *HTTP) SaveWorksheet(ctx context.Context, name, content string, overwrite bool) (worksheet.SaveResult, error) {
	resp, err := h.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"name": name, "content": content, "overwrite": overwrite}).
		Post(h.url(h.endpoints.Save))
	if err := persistenceFailure("save worksheet", resp, err); err != nil {
		return worksheet.SaveResult{}, err
	}

	var out worksheet.SaveResult
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return worksheet.SaveResult{}, apperrors.Wrap(apperrors.PersistenceFailed, "malformed save response", err)
	}
	if out.Result == "" && len(out.Form) == 0 {
		out.Result = worksheet.SaveOK
	}
	return out, nil
}

// OpenWorksheet fetches the serialized content of the named worksheet.
func (h *HTTP) OpenWorksheet(ctx context.Context, name string) (string, error) {
	resp, err := h.request(ctx).
		SetQueryParam("name", name).
		Get(h.url(h.endpoints.Open))
	if err := persistenceFailure("open worksheet "+name, resp, err); err != nil {
		return "", err
	}

	var out struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", apperrors.Wrap(apperrors.PersistenceFailed, "malformed open response", err)
	}
	if out.Content == nil {
		return "", apperrors.New(apperrors.PersistenceFailed, "open response carries no content")
	}
	return *out.Content, nil
}

// ListWorksheets returns the names of the user's saved worksheets.
func (h *HTTP) ListWorksheets(ctx context.Context) ([]worksheet.Info, error) {
	resp, err := h.request(ctx).Get(h.url(h.endpoints.List))
	if err := persistenceFailure("list worksheets", resp, err); err != nil {
		return nil, err
	}

	var out struct {
		Worksheets []worksheet.Info `json:"worksheets"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, apperrors.Wrap(apperrors.PersistenceFailed, "malformed list response", err)
	}
	if out.Worksheets == nil {
		out.Worksheets = []worksheet.Info{}
	}
	return out.Worksheets, nil
}

// persistenceFailure maps transport errors and HTTP statuses to typed errors.
func persistenceFailure(op string, resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.Wrap(apperrors.PersistenceFailed, op, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.New(apperrors.AuthRequired, op+" requires login")
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.PersistenceFailed, op+": not found")
	case code >= http.StatusBadRequest:
		return apperrors.New(apperrors.PersistenceFailed, op+": "+statusMessage(code, resp.Body()))
	}
	return nil
}
