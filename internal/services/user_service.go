package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/avatar"
	"github.com/kmehta/taskhub-be/internal/mail"
	"github.com/kmehta/taskhub-be/internal/models"
)

// The avatar blob is only loaded by GetAvatar.
const userColumns = "id, name, email, password_hash, age, created_at, updated_at"

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=7,nopassword"`
	Age      int    `json:"age" validate:"gte=0"`
}

// ProfileUpdate carries the allow-listed mutable profile fields. A nil field
// was not present in the request.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(input RegisterInput) (models.User, string, error)
	Login(email, password string) (models.User, string, error)
	Logout(userID, token string) error
	LogoutAll(userID string) error
	GetUserBySession(userID, token string) (models.User, error)
	UpdateUser(id string, update ProfileUpdate) (models.User, error)
	DeleteUser(id string) (models.User, error)
	SetAvatar(id, filename string, size int64, data []byte) error
	ClearAvatar(id string) error
	GetAvatar(id string) ([]byte, error)
}

// UserService provides business logic for accounts, sessions and avatars.
type UserService struct {
	db       *sqlx.DB
	tokens   *auth.TokenService
	mailer   mail.Mailer
	validate *validator.Validate
}

// NewUserService creates a new UserService.
func NewUserService(db *sqlx.DB, tokens *auth.TokenService, mailer mail.Mailer) *UserService {
	v := validator.New()
	_ = v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})
	return &UserService{db: db, tokens: tokens, mailer: mailer, validate: v}
}

// Register creates a new account, fires the welcome notification and issues
// the initial session token.
func (s *UserService) Register(input RegisterInput) (models.User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Password = strings.TrimSpace(input.Password)

	if err := s.validateRegister(input); err != nil {
		return models.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Age:          input.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, age, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Age, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, "", newValidationError("email", "is already in use")
		}
		return models.User{}, "", err
	}

	go s.mailer.SendWelcome(user.Name, user.Email)

	token, err := s.issueToken(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and issues an additive session token; other
// active sessions remain valid.
func (s *UserService) Login(email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Logout revokes exactly the presented session token.
func (s *UserService) Logout(userID, token string) error {
	_, err := s.db.Exec(`DELETE FROM tokens WHERE user_id = ? AND token = ?`, userID, token)
	return err
}

// LogoutAll revokes every session token held by the user.
func (s *UserService) LogoutAll(userID string) error {
	_, err := s.db.Exec(`DELETE FROM tokens WHERE user_id = ?`, userID)
	return err
}

// GetUserBySession resolves a user by id, requiring the token to still be in
// the user's active session list.
func (s *UserService) GetUserBySession(userID, token string) (models.User, error) {
	var user models.User
	err := s.db.Get(&user,
		`SELECT u.id, u.name, u.email, u.password_hash, u.age, u.created_at, u.updated_at
		 FROM users u JOIN tokens t ON t.user_id = u.id
		 WHERE u.id = ? AND t.token = ?`,
		userID, token,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser applies the allow-listed profile fields, re-validating each as
// at registration. The password is re-hashed only when it was provided.
func (s *UserService) UpdateUser(id string, update ProfileUpdate) (models.User, error) {
	user, err := s.getUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	fields := map[string]string{}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := s.validate.Var(name, "required,min=3"); err != nil {
			fields["name"] = "must be at least 3 characters"
		}
		user.Name = name
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if err := s.validate.Var(email, "required,email"); err != nil {
			fields["email"] = "must be a valid email address"
		}
		user.Email = email
	}
	if update.Password != nil {
		password := strings.TrimSpace(*update.Password)
		if err := s.validate.Var(password, "required,min=7"); err != nil {
			fields["password"] = "must be at least 7 characters"
		} else if err := s.validate.Var(password, "nopassword"); err != nil {
			fields["password"] = `must not contain "password"`
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return models.User{}, fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = string(hash)
		}
	}
	if update.Age != nil {
		if *update.Age < 0 {
			fields["age"] = "must be a non-negative number"
		}
		user.Age = *update.Age
	}

	if len(fields) > 0 {
		return models.User{}, &ValidationError{Fields: fields}
	}

	user.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE users SET name = ?, email = ?, password_hash = ?, age = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, user.Age, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, newValidationError("email", "is already in use")
		}
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes the account with an explicit cascade: tasks and session
// tokens go in the same transaction as the user row. Fires the cancellation
// notification and returns the deleted user's prior state.
func (s *UserService) DeleteUser(id string) (models.User, error) {
	user, err := s.getUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks WHERE owner_id = ?`, id); err != nil {
		return models.User{}, err
	}
	if _, err := tx.Exec(`DELETE FROM tokens WHERE user_id = ?`, id); err != nil {
		return models.User{}, err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	go s.mailer.SendCancellation(user.Name, user.Email)
	return user, nil
}

// SetAvatar validates the upload, normalizes the image to the canonical
// format and stores the blob on the user record.
func (s *UserService) SetAvatar(id, filename string, size int64, data []byte) error {
	if err := avatar.ValidateUpload(filename, size); err != nil {
		return newValidationError("avatar", err.Error())
	}

	normalized, err := avatar.Normalize(data)
	if err != nil {
		return newValidationError("avatar", "could not be decoded as an image")
	}

	res, err := s.db.Exec(`UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`, normalized, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAvatar removes the stored avatar blob.
func (s *UserService) ClearAvatar(id string) error {
	res, err := s.db.Exec(`UPDATE users SET avatar = NULL, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAvatar returns the stored avatar blob. Missing user and missing avatar
// are both ErrNotFound.
func (s *UserService) GetAvatar(id string) ([]byte, error) {
	var blob []byte
	err := s.db.Get(&blob, `SELECT avatar FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(blob) == 0 {
		return nil, ErrNotFound
	}
	return blob, nil
}

func (s *UserService) getUserByID(id string) (models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// issueToken signs a token for the user and appends it to the session list.
func (s *UserService) issueToken(userID string) (string, error) {
	token, err := s.tokens.Sign(userID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`, token, userID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	return token, nil
}

func (s *UserService) validateRegister(input RegisterInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		ve.Fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be a non-negative number"
	case "nopassword":
		return `must not contain "password"`
	}
	return "is invalid"
}
