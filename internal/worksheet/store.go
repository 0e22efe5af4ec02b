// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package worksheet

import "context"

// Save outcomes reported by a Store.
const (
	SaveOK        = "ok"
	SaveOverwrite = "overwrite"
)

// SaveResult is the answer of a save call.
// Result is SaveOverwrite when a worksheet with that name exists and overwrite was false;
// nothing is written in that case. Form carries per-field validation errors.
type SaveResult struct {
	Result string              `json:"result"`
	Form   map[string][]string `json:"form,omitempty"`
}

// NeedsOverwrite reports whether the save was refused because the name is taken.
func (r SaveResult) NeedsOverwrite() bool { return r.Result == SaveOverwrite }

// Info describes a stored worksheet.
type Info struct {
	Name string `json:"name"`
}

// Store persists named worksheets. Content is the payload produced by Encode.
// Implementations may return errors of kind AuthRequired or PersistenceFailed.
type Store interface {
	SaveWorksheet(ctx context.Context, name string, content string, overwrite bool) (SaveResult, error)
	OpenWorksheet(ctx context.Context, name string) (string, error)
	ListWorksheets(ctx context.Context) ([]Info, error)
}
