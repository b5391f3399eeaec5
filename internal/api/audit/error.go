package audit

import (
	"heimdall/pkg/response"
	"net/http"
)

var (
	ErrLogNotFound         = response.NewError(http.StatusNotFound, "audit log not found")
	ErrInvalidLimit        = response.NewError(http.StatusBadRequest, "limit must be between 1 and 500")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)
