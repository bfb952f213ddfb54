package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/fotoden/fotoden/internal/domain"
)

// maxJSONBody caps JSON request bodies. Photo uploads use multipart and
// have their own limit.
const maxJSONBody = 1 << 20 // 1 MiB

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parses the request body into dst, rejecting unknown fields
// and oversized payloads with an EINVALID error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Errorf(domain.EINVALID, "", "Request body is not valid JSON")
	}
	// A second document after the first means garbage on the wire
	if dec.More() {
		return domain.Errorf(domain.EINVALID, "", "Request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	}
	return id, nil
}

// queryInt parses an integer query parameter, ignoring garbage.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// queryUUID parses an optional UUID query parameter. A present but
// malformed value is reported rather than silently dropped.
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError("", key, "Must be a valid UUID")
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter.
// Returns nil when absent or malformed.
func queryBool(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
