package auth

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// sessionResponseWriter commits the session and writes its cookie right
// before the first header or body byte goes out.
type sessionResponseWriter struct {
	gin.ResponseWriter
	sm            *SessionManager
	request       *http.Request
	wroteHeader   bool
	cookieWritten bool
}

func (w *sessionResponseWriter) WriteHeader(code int) {
	w.beforeWrite()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionResponseWriter) WriteHeaderNow() {
	w.beforeWrite()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	w.beforeWrite()
	return w.ResponseWriter.Write(b)
}

func (w *sessionResponseWriter) WriteString(s string) (int, error) {
	w.beforeWrite()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionResponseWriter) beforeWrite() {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
}

func (w *sessionResponseWriter) writeSessionCookie() {
	if w.cookieWritten {
		return
	}
	w.cookieWritten = true

	ctx := w.request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			log.Error().Err(err).Str("path", w.request.URL.Path).Msg("failed to commit session")
			return
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *sessionResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionLoadSave is the gin equivalent of scs LoadAndSave. It must run
// before any handler touches the session.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &sessionResponseWriter{
			ResponseWriter: c.Writer,
			sm:             sm,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		if !srw.wroteHeader {
			srw.writeSessionCookie()
		}
	}
}
