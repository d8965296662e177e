package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newIdentityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": CurrentUserID(c)})
	})
	r.GET("/ticket", RequireIdentity(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": CurrentUserID(c)})
	})
	return r
}

func doRequest(r *gin.Engine, path, userIDHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userIDHeader != "" {
		req.Header.Set("X-User-ID", userIDHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestIdentity_ParsesHeader verifies the identity header lands in the context.
func TestIdentity_ParsesHeader(t *testing.T) {
	w := doRequest(newIdentityRouter(), "/open", "7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId": 7}`, w.Body.String())
}

// TestIdentity_AnonymousDefaultsToZero verifies a missing header is treated as
// an anonymous visitor, not an error, on unguarded routes.
func TestIdentity_AnonymousDefaultsToZero(t *testing.T) {
	w := doRequest(newIdentityRouter(), "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId": 0}`, w.Body.String())
}

// TestRequireIdentity_RejectsAnonymous verifies guarded routes refuse callers
// without an identity header.
func TestRequireIdentity_RejectsAnonymous(t *testing.T) {
	w := doRequest(newIdentityRouter(), "/ticket", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestRequireIdentity_RejectsMalformedHeader verifies unparseable or zero ids
// are treated the same as a missing identity.
func TestRequireIdentity_RejectsMalformedHeader(t *testing.T) {
	r := newIdentityRouter()
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/ticket", "not-a-number").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/ticket", "0").Code)
}

// TestRequireIdentity_PassesWithIdentity verifies a valid header reaches the
// guarded handler with the parsed id.
func TestRequireIdentity_PassesWithIdentity(t *testing.T) {
	w := doRequest(newIdentityRouter(), "/ticket", "42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId": 42}`, w.Body.String())
}
