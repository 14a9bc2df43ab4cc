// Package auth provides staff authentication and authorization.
//
// Passwords are stored as bcrypt hashes. Sessions are cookie based
// (alexedwards/scs with the SQLite store) and unsafe requests are protected
// by gorilla/csrf when AUTH_SESSION_SECRET is set.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<random string>   # enables CSRF protection
//	AUTH_SESSION_LIFETIME=12h
//	AUTH_BCRYPT_COST=12                   # minimum 10
//	AUTH_SECURE_COOKIES=true
//	AUTH_DEFAULT_ADMIN_USERNAME=admin
//	AUTH_DEFAULT_ADMIN_PASSWORD=admin
//
// # Privileged operations
//
// CreateUser and AdminResetPassword take an explicit Actor and re-read its
// role inside the transaction; anything but an admin (or SystemActor) gets
// ErrForbidden. The default admin created on first start is flagged
// MustChangePassword, and the middleware refuses every API call except
// logout and password change until it is cleared.
//
// # Usage
//
//	authService := auth.NewService(db.DB, auditService, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(authService, sessions).Handler())
package auth
