// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/watchparty/internal/logging"
	"github.com/tomtom215/watchparty/internal/models"
	"github.com/tomtom215/watchparty/internal/validation"
)

// maxRequestBodySize bounds request bodies to keep a single client from
// exhausting memory. Party payloads are tiny; 1 MiB is generous.
const maxRequestBodySize = 1 << 20

// sanitizeLogValue strips control characters from user-supplied strings
// before they reach the log stream, preventing log injection. Long values
// are truncated.
func sanitizeLogValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > 128 {
		s = s[:128] + "..."
	}
	return s
}

// generateETag computes a weak ETag over the response body using FNV-1a.
// Not cryptographic; only used for If-None-Match cache revalidation.
func generateETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}

// respondJSON writes a success envelope. For 2xx responses an ETag is
// attached and If-None-Match requests short-circuit to 304.
func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	resp := models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode response", nil)
		return
	}

	if statusCode >= 200 && statusCode < 300 {
		etag := generateETag(body)
		w.Header().Set("ETag", etag)
		if r != nil && r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("failed to write response body")
	}
}

// respondError writes an error envelope with the given code and message.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal error response")
		http.Error(w, message, statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// decodeJSON decodes a bounded request body into dst, rejecting unknown
// fields so client typos surface as errors instead of silent defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bindRequest decodes and validates a request body. On failure it writes
// the error response and returns false; handlers simply return.
func bindRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body: "+err.Error(), nil)
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return false
	}

	return true
}
