// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// decodeJSONBody decodes r's JSON body into dst, writing a 400 response
// and returning false on any decode failure.
func decodeJSONBody(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("invalid JSON body")
		return false
	}
	return true
}
