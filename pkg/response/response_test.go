package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	notFound := NewError(http.StatusNotFound, "log not found")

	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", notFound), notFound))
	assert.True(t, errors.Is(notFound, NewError(http.StatusNotFound, "log not found")))
	assert.False(t, errors.Is(notFound, NewError(http.StatusBadRequest, "log not found")))
	assert.False(t, errors.Is(notFound, errors.New("log not found")))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("scan: %w", NewError(http.StatusBadGateway, "vision service unavailable"))

	assert.Equal(t, http.StatusBadGateway, CodeOf(err, http.StatusInternalServerError))
	assert.Equal(t, http.StatusInternalServerError, CodeOf(errors.New("boom"), http.StatusInternalServerError))
}
