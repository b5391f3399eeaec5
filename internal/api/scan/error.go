package scan

import (
	"heimdall/pkg/response"
	"net/http"
)

var (
	ErrMissingImage        = response.NewError(http.StatusBadRequest, "Missing 'image' in request body")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "image is not valid base64")
	ErrUnsupportedImage    = response.NewError(http.StatusUnsupportedMediaType, "image must be jpeg or png")
	ErrImageTooLarge       = response.NewError(http.StatusRequestEntityTooLarge, "image exceeds 5MB")
	ErrInvalidInput        = response.NewError(http.StatusBadGateway, "invalid detection result")
	ErrVisionUnavailable   = response.NewError(http.StatusBadGateway, "vision service unavailable")
	ErrZoneStatusNotFound  = response.NewError(http.StatusNotFound, "zone status not found")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)
