package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/access"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

const maxBodyBytes = 1 << 20

var errBadID = errors.New("invalid id")

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", models.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body", models.ErrValidation)
	}
	return nil
}

// orgID returns the organization id authorized by the access gate. Handlers
// must never re-read it from the URL.
func orgID(r *http.Request) uuid.UUID {
	id, _ := access.OrganizationFromContext(r.Context())
	return id
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

// writeError maps domain and store errors onto HTTP responses. Unexpected
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidRole):
		httpmiddleware.WriteError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, errBadID):
		httpmiddleware.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrOrganizationAlreadyExists):
		httpmiddleware.WriteError(w, http.StatusBadRequest, "Organization with this name already exists")
	case errors.Is(err, store.ErrMembershipAlreadyExists):
		httpmiddleware.WriteError(w, http.StatusBadRequest, "User is already a member")
	case errors.Is(err, store.ErrUserNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, store.ErrMembershipNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "Member not found")
	case errors.Is(err, store.ErrOrganizationNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "Organization not found")
	case errors.Is(err, store.ErrServiceNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "Service not found")
	case errors.Is(err, store.ErrIncidentNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "Incident not found")
	case errors.Is(err, store.ErrMaintenanceNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "Maintenance not found")
	case errors.Is(err, store.ErrConflict):
		httpmiddleware.WriteError(w, http.StatusConflict, "concurrent modification, please retry")
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("action", action).Msg("Request failed")
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// validationMessage strips the sentinel prefix so the caller sees only the
// actionable part.
func validationMessage(err error) string {
	if errors.Is(err, models.ErrInvalidRole) {
		return "Invalid role"
	}
	if _, detail, ok := strings.Cut(err.Error(), models.ErrValidation.Error()+": "); ok {
		return detail
	}
	return err.Error()
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{models.ErrValidation}, args...)...)
}
