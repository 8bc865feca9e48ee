package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"wordslayer/internal/logger"
)

const maxBodyBytes = 1 << 20

// pathID parses a positive int64 path value
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// requestOwner returns the authenticated user and the bank of the route,
// writing an error response when either is missing
func requestOwner(w http.ResponseWriter, r *http.Request, log *logger.Logger) (int64, int64, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, log, http.StatusUnauthorized, "Unauthorized", "", nil)
		return 0, 0, false
	}
	bankID, err := pathID(r, "bankID")
	if err != nil {
		respondWithError(w, log, http.StatusBadRequest, "Invalid word bank ID", "", err)
		return 0, 0, false
	}
	return userID, bankID, true
}
