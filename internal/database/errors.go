// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import "io"

// closeQuietly closes a resource and explicitly ignores any error. Used in
// error paths where the original error already explains the failure and a
// Close() error would only be noise.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
