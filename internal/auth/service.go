package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/users"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// SystemActorName is the actor recorded for bootstrap and CLI maintenance.
// No account may use it as a username.
const SystemActorName = "system"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{3,64}$`)

var (
	ErrAuth               = errors.New("authentication failed")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuth)
	ErrIncorrectPassword  = fmt.Errorf("%w: current password incorrect", ErrAuth)
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUserNotFound       = fmt.Errorf("user %w", database.ErrNotFound)
	ErrUserExists         = fmt.Errorf("user already exists: %w", database.ErrConflict)
	ErrUsernameInvalid    = fmt.Errorf("%w: username must be 3-64 characters of letters, digits, '.', '_', '@' or '-'", database.ErrValidation)
	ErrUsernameReserved   = fmt.Errorf("%w: username %q is reserved", database.ErrValidation, SystemActorName)
	ErrInvalidRole        = fmt.Errorf("%w: role must be admin or staff", database.ErrValidation)
	ErrEmailInvalid       = fmt.Errorf("%w: invalid email format", database.ErrValidation)
)

// Actor identifies who invokes a privileged operation.
type Actor struct {
	Username string
	Role     entities.UserRole
}

// SystemActor is admin-equivalent and never looked up in the users table.
var SystemActor = Actor{Username: SystemActorName, Role: entities.UserRoleAdmin}

func (a Actor) isSystem() bool {
	return a.Username == SystemActorName && a.Role == entities.UserRoleAdmin
}

// Notifier receives password events after the change has committed.
// Implementations must not block.
type Notifier interface {
	PasswordChanged(ctx context.Context, user *entities.User)
	PasswordReset(ctx context.Context, user *entities.User, by string)
}

// Service handles credentials, roles and the default admin bootstrap. Every
// state change writes its audit entry in the same transaction.
type Service struct {
	db       *gorm.DB
	audit    *audit.Service
	config   config.Auth
	notifier Notifier
	validate *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

func NewService(db *gorm.DB, auditSvc *audit.Service, cfg config.Auth) *Service {
	return &Service{
		db:       db,
		audit:    auditSvc,
		config:   cfg,
		validate: validator.New(),
	}
}

// SetNotifier attaches the password event sink. nil disables notifications.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateUser creates an account. Only admins (or the system actor) may call it.
func (s *Service) CreateUser(ctx context.Context, actor Actor, username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := s.validateUsername(username); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if err := s.validate.Var(email, "omitempty,email,max=254"); err != nil {
		return nil, ErrEmailInvalid
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorizeAdmin(tx, actor); err != nil {
			return err
		}
		if err := users.NewRepository(tx).Create(user); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return fmt.Errorf("%w: %s", ErrUserExists, username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.audit.Record(tx, actor.Username, entities.AuditActionCreateUser,
			fmt.Sprintf("username:%s role:%s", username, role))
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	log.Info().Str("actor", actor.Username).Str("username", username).Str("role", string(role)).Msg("user created")
	return user, nil
}

// Authenticate returns the user for valid credentials. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials after a bcrypt comparison,
// so neither the error nor the timing tells them apart.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetByUsername(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			_ = CheckPassword(password, s.dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	return user, nil
}

// VerifyUser reports whether the credentials are valid. Lookup failures of
// any kind read as false.
func (s *Service) VerifyUser(ctx context.Context, username, password string) bool {
	_, err := s.Authenticate(ctx, username, password)
	return err == nil
}

func (s *Service) GetUserRole(ctx context.Context, username string) (entities.UserRole, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *Service) GetUser(ctx context.Context, username string) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetByID(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	return users.NewRepository(s.db.WithContext(ctx)).List()
}

func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	count, err := users.NewRepository(s.db.WithContext(ctx)).Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ChangePassword replaces the caller's own password after checking the
// current one. On ErrIncorrectPassword the stored hash is left untouched.
// A successful change clears the forced-change flag.
func (s *Service) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	var changed *entities.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := repo.GetByUsername(username)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrIncorrectPassword
			}
			return err
		}
		if err := CheckPassword(currentPassword, user.PasswordHash); err != nil {
			if errors.Is(err, ErrInvalidPassword) {
				return ErrIncorrectPassword
			}
			return err
		}
		if err := ValidatePassword(newPassword); err != nil {
			return err
		}

		hash, err := HashPassword(newPassword, s.config.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := repo.UpdatePassword(user.ID, hash, false); err != nil {
			return err
		}
		if err := s.audit.Record(tx, username, entities.AuditActionChangePassword, "password changed"); err != nil {
			return err
		}
		user.PasswordHash = hash
		user.MustChangePassword = false
		changed = user
		return nil
	})
	if err != nil {
		return database.Classify(err)
	}

	log.Info().Str("username", username).Msg("password changed")
	if s.notifier != nil {
		s.notifier.PasswordChanged(ctx, changed)
	}
	return nil
}

// AdminResetPassword sets a new password for target without the current
// one. The actor must be an admin, re-checked against the store. The target
// is forced to choose a new password at next login.
func (s *Service) AdminResetPassword(ctx context.Context, actor Actor, targetUsername, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var target *entities.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorizeAdmin(tx, actor); err != nil {
			return err
		}
		repo := users.NewRepository(tx)
		user, err := repo.GetByUsername(targetUsername)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := repo.UpdatePassword(user.ID, hash, true); err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor.Username, entities.AuditActionAdminResetPassword,
			"target:"+targetUsername); err != nil {
			return err
		}
		user.PasswordHash = hash
		user.MustChangePassword = true
		target = user
		return nil
	})
	if err != nil {
		return database.Classify(err)
	}

	log.Info().Str("actor", actor.Username).Str("target", targetUsername).Msg("password reset by admin")
	if s.notifier != nil {
		s.notifier.PasswordReset(ctx, target, actor.Username)
	}
	return nil
}

// BootstrapDefaultAdmin creates the configured default admin when no user
// exists. The account must change its password before doing anything else.
// It reports whether an account was created.
func (s *Service) BootstrapDefaultAdmin(ctx context.Context) (bool, error) {
	username := s.config.DefaultAdminUsername
	if username == "" {
		username = "admin"
	}
	password := s.config.DefaultAdminPassword
	if password == "" {
		password = "admin"
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		count, err := repo.Count()
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := HashPassword(password, s.config.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash default admin password: %w", err)
		}
		admin := &entities.User{
			Username:           username,
			PasswordHash:       hash,
			Role:               entities.UserRoleAdmin,
			MustChangePassword: true,
		}
		if err := repo.Create(admin); err != nil {
			return fmt.Errorf("failed to create default admin: %w", err)
		}
		created = true
		return s.audit.Record(tx, SystemActorName, entities.AuditActionCreateDefaultAdmin, "username:"+username)
	})
	if err != nil {
		return false, database.Classify(err)
	}

	if created {
		log.Warn().Str("username", username).
			Msg("created default admin with the configured default password; a password change is required at first login")
	}
	return created, nil
}

// authorizeAdmin fails closed unless actor is the system actor or a stored
// admin account. The role is read through tx, not trusted from the caller.
func (s *Service) authorizeAdmin(tx *gorm.DB, actor Actor) error {
	if actor.isSystem() {
		return nil
	}
	if actor.Username == "" {
		return ErrForbidden
	}
	user, err := users.NewRepository(tx).GetByUsername(actor.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) validateUsername(username string) error {
	if strings.EqualFold(username, SystemActorName) {
		return ErrUsernameReserved
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword("timing-equaliser", s.config.BcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
