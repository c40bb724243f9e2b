package api_v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
)

const (
	UnauthorizedMsg  = "Unauthorized"
	InternalErrorMsg = "Internal server error"
	NotFoundMsg      = "Deployment not found"
	UploadFailedMsg  = "Failed to upload file"
	CreateFailedMsg  = "Failed to create deployment"
	FetchFailedMsg   = "Failed to fetch deployments"
)

// Uploads larger than this are buffered on disk while the request is parsed.
const MaxMultipartMemory = 8 << 20

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorStatus maps an error returned by the orchestrator to a response code and a message fit for clients.
// fallback is used for persistence errors, which are reported differently depending on the operation.
func ErrorStatus(err error, fallback string) (int, ErrorResponse) {
	var validationError *deployment.ValidationError
	var authorizationError *deployment.AuthorizationError
	var storageError *deployment.StorageError
	var persistenceError *deployment.PersistenceError

	switch {
	case errors.As(err, &validationError):
		return http.StatusBadRequest, ErrorResponse{Message: validationError.Message, Field: validationError.Field}
	case errors.As(err, &authorizationError):
		return http.StatusUnauthorized, ErrorResponse{Message: UnauthorizedMsg}
	case database.IsErrNotFound(err):
		return http.StatusNotFound, ErrorResponse{Message: NotFoundMsg}
	case errors.As(err, &storageError):
		return http.StatusInternalServerError, ErrorResponse{Message: UploadFailedMsg}
	case errors.As(err, &persistenceError):
		return http.StatusInternalServerError, ErrorResponse{Message: fallback}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: InternalErrorMsg}
	}
}

// WriteError renders err as a JSON error response.
func WriteError(w http.ResponseWriter, err error, fallback string) int {
	code, response := ErrorStatus(err, fallback)
	WriteJSON(w, code, &response)
	return code
}

func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
