package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader carries the token on unsafe API requests.
const CSRFTokenHeader = "X-CSRF-Token"

// CSRFMiddleware protects unsafe methods with gorilla/csrf. Clients fetch a
// token from any safe request (it is echoed in CSRFTokenHeader) and send it
// back in the same header.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := csrf.Token(r)
			c.Set("csrf_token", token)
			c.Header(CSRFTokenHeader, token)
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

func GetCSRFToken(c *gin.Context) string {
	return c.GetString("csrf_token")
}
