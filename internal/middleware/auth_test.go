package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "segredo"

func engineWith(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})...)
	return r
}

func get(r *gin.Engine, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActor_SemTokenEhSistema(t *testing.T) {
	w := get(engineWith(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sistema", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestJWTAuth_TokenExpirado(t *testing.T) {
	tok, err := SignToken(secret, "maria", RoleStock, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(engineWith(JWTAuth(secret)), tok).Code)
}

func TestJWTAuth_SemUsuario(t *testing.T) {
	tok, err := SignToken(secret, "", RoleStock, jwt.RegisteredClaims{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(engineWith(JWTAuth(secret)), tok).Code)
}

func TestRequireRole(t *testing.T) {
	r := engineWith(JWTAuth(secret), RequireRole(RoleFinance))

	cases := map[string]int{
		RoleFinance: http.StatusOK,
		RoleAdmin:   http.StatusOK,
		RoleStock:   http.StatusForbidden,
		"visitante": http.StatusForbidden,
	}
	for role, want := range cases {
		tok, err := SignToken(secret, "ana", role, jwt.RegisteredClaims{})
		require.NoError(t, err)
		w := get(r, tok)
		assert.Equal(t, want, w.Code, role)
		if want == http.StatusOK {
			assert.Equal(t, "ana", w.Body.String())
		}
	}
}

func TestRequestID_PropagaCabecalho(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	engineWith().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter_BloqueiaAcimaDoLimite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
