package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.Database{Path: filepath.Join(t.TempDir(), "library.db")},
		Auth: config.Auth{
			BcryptCost:           config.MinBcryptCost,
			SessionLifetime:      time.Hour,
			DefaultAdminUsername: "admin",
			DefaultAdminPassword: "admin",
		},
		Log:     config.Log{Level: "error"},
		Library: config.Library{DefaultLoanDays: 14, Timezone: "UTC"},
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", func() *config.Config { return cfg })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func openApp(t *testing.T, cfg *config.Config) *entrypoint.App {
	t.Helper()
	app, err := entrypoint.NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, testConfig(t), "keygen")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "AUTH_SESSION_SECRET="))
	assert.Len(t, strings.TrimPrefix(lines[0], "AUTH_SESSION_SECRET="), 64)
	assert.True(t, strings.HasPrefix(lines[1], "SETTINGS_ENCRYPTION_KEY="))
}

func TestInit(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, cfg, "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfg.Database.Path)

	_, err = execute(t, cfg, "init")
	require.NoError(t, err)

	users, err := openApp(t, cfg).Auth.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
}

func TestUserCreate(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, cfg, "user", "create", "--username", "alice", "--password", "password123", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, `Created admin account "alice"`)

	_, err = execute(t, cfg, "user", "create", "--username", "bob", "--password", "password123")
	require.NoError(t, err)

	_, err = execute(t, cfg, "user", "create", "--username", "alice", "--password", "password123")
	assert.ErrorIs(t, err, auth.ErrUserExists)

	_, err = execute(t, cfg, "user", "create", "--username", "carol", "--password", "short")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, err = execute(t, cfg, "user", "create", "--password", "password123")
	assert.ErrorContains(t, err, "username")

	app := openApp(t, cfg)
	bob, err := app.Auth.GetUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "staff", string(bob.Role))

	entries, err := app.Audit.Query(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, auth.SystemActorName, e.Actor)
		assert.Equal(t, "create_user", string(e.Action))
	}
}

func TestUserCreate_PasswordRequiredWithoutTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("stdin is a terminal")
	}
	_, err := execute(t, testConfig(t), "user", "create", "--username", "alice")
	assert.ErrorIs(t, err, errNoPassword)
}

func TestUserResetPassword(t *testing.T) {
	cfg := testConfig(t)
	_, err := execute(t, cfg, "user", "create", "--username", "root", "--password", "password123", "--role", "admin")
	require.NoError(t, err)
	_, err = execute(t, cfg, "user", "create", "--username", "clerk", "--password", "password123")
	require.NoError(t, err)

	t.Run("as admin", func(t *testing.T) {
		out, err := execute(t, cfg, "user", "reset-password", "--admin", "root", "--username", "clerk", "--password", "newpassword1")
		require.NoError(t, err)
		assert.Contains(t, out, `"clerk" reset`)

		app := openApp(t, cfg)
		user, err := app.Auth.Authenticate(context.Background(), "clerk", "newpassword1")
		require.NoError(t, err)
		assert.True(t, user.MustChangePassword)

		entries, err := app.Audit.Query(context.Background(), 1, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "root", entries[0].Actor)
		assert.Equal(t, "target:clerk", entries[0].Details)
	})

	t.Run("staff cannot reset", func(t *testing.T) {
		_, err := execute(t, cfg, "user", "reset-password", "--admin", "clerk", "--username", "root", "--password", "newpassword1")
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("as system", func(t *testing.T) {
		_, err := execute(t, cfg, "user", "reset-password", "--username", "root", "--password", "newpassword2")
		require.NoError(t, err)

		entries, err := openApp(t, cfg).Audit.Query(context.Background(), 1, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auth.SystemActorName, entries[0].Actor)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := execute(t, cfg, "user", "reset-password", "--username", "nobody", "--password", "newpassword1")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestExportLoans(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, cfg, "export", "loans")
	require.NoError(t, err)
	assert.Equal(t, "Loan ID,Book,Member,Borrowed,Due,Returned,Late Fee\n", out)

	path := filepath.Join(t.TempDir(), "loans.csv")
	out, err = execute(t, cfg, "export", "loans", "--out", path, "--from", "2024-01-01", "--to", "2024-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 0 loans")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Loan ID,"))

	_, err = execute(t, cfg, "export", "loans", "--from", "01/01/2024")
	assert.Error(t, err)

	entries, err := openApp(t, cfg).Audit.Query(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "export_csv", string(e.Action))
		assert.Equal(t, auth.SystemActorName, e.Actor)
	}
}

func TestImportBooks(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte("title,author\nDune,Frank Herbert\n,Nobody\n"), 0o600))

	out, err := execute(t, cfg, "import", "books", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 2 rows, skipped 1")
	assert.Contains(t, out, "Line 3: skipped - missing title")

	books, err := openApp(t, cfg).Catalog.ListBooks(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	_, err = execute(t, cfg, "import", "books", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestAudit(t *testing.T) {
	cfg := testConfig(t)
	_, err := execute(t, cfg, "init")
	require.NoError(t, err)
	_, err = execute(t, cfg, "user", "create", "--username", "alice", "--password", "password123")
	require.NoError(t, err)

	out, err := execute(t, cfg, "audit")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "create_user")
	assert.Contains(t, lines[2], "create_default_admin")

	out, err = execute(t, cfg, "audit", "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = execute(t, cfg, "audit", "--since", "2999-01-01")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)

	_, err = execute(t, cfg, "audit", "--since", "yesterday")
	assert.ErrorContains(t, err, "invalid --since")
}

func TestParseSince(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := parseSince("2024-03-01", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), got)

	got, err = parseSince("2024-03-01T10:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}
