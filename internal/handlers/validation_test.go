package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email string  `json:"email" validate:"required,email"`
	Hours float64 `json:"hours" validate:"required,gt=0,lte=24"`
}

func postJSON(t *testing.T, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestBindAndValidate(t *testing.T) {
	handler := func(c *gin.Context) {
		var req samplePayload
		if !bindAndValidate(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	}

	w := postJSON(t, handler, `{"email":"ada@example.com","hours":8}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, handler, `{"email":"ada@example.com","hours":8`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid JSON payload")

	w = postJSON(t, handler, `{"hours":8}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "email is required")

	w = postJSON(t, handler, `{"email":"not-an-email","hours":8}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "valid email address")

	w = postJSON(t, handler, `{"email":"ada@example.com","hours":25}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "hours must be at most 24")
}
