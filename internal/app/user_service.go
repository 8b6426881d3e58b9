package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"contest-tracker/internal/config"
	"contest-tracker/internal/model"
	"contest-tracker/internal/repository"
)

// TokenStore issues and resolves opaque API tokens.
type TokenStore interface {
	GetOrCreate(ctx context.Context, userID uint) (string, error)
	Lookup(ctx context.Context, token string) (uint, bool, error)
}

type UserService struct {
	userRepo          *repository.UserRepository
	tokens            TokenStore
	minPasswordLength int
	bcryptCost        int
}

type CreateUserInput struct {
	Email            string `json:"email" validate:"required,email,max=255"`
	Password         string `json:"password" validate:"required"`
	Name             string `json:"name" validate:"required,max=255"`
	CodeforcesHandle string `json:"codeforces_handle" validate:"max=255"`
	OmegaUpHandle    string `json:"omegaup_handle" validate:"max=255"`
	KattisHandle     string `json:"kattis_handle" validate:"max=255"`
}

type SuperuserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

type TokenInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput leaves a field untouched when it is nil. A blank handle
// clears it.
type UpdateProfileInput struct {
	Name             *string `json:"name" validate:"omitnil,min=1,max=255"`
	Password         *string `json:"password" validate:"omitnil,min=1"`
	CodeforcesHandle *string `json:"codeforces_handle" validate:"omitnil,max=255"`
	OmegaUpHandle    *string `json:"omegaup_handle" validate:"omitnil,max=255"`
	KattisHandle     *string `json:"kattis_handle" validate:"omitnil,max=255"`
}

func NewUserService(userRepo *repository.UserRepository, tokens TokenStore, cfg config.AuthConfig) *UserService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:          userRepo,
		tokens:            tokens,
		minPasswordLength: cfg.MinPasswordLength,
		bcryptCost:        cost,
	}
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	input.Email = model.NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	verr := validateInput(input)
	s.checkPassword(verr, input.Password)

	user := &model.User{
		Email:            input.Email,
		Name:             input.Name,
		IsActive:         true,
		CodeforcesHandle: model.Handle(input.CodeforcesHandle),
		OmegaUpHandle:    model.Handle(input.OmegaUpHandle),
		KattisHandle:     model.Handle(input.KattisHandle),
	}
	if err := s.checkUnique(ctx, verr, user); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if err := s.insert(ctx, user, input.Password); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("user created")
	return user, nil
}

// CreateSuperuser creates an active account with both staff and superuser flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, input SuperuserInput) (*model.User, error) {
	input.Email = model.NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	verr := validateInput(input)
	s.checkPassword(verr, input.Password)

	user := &model.User{
		Email:       input.Email,
		Name:        input.Name,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.checkUnique(ctx, verr, user); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if err := s.insert(ctx, user, input.Password); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("superuser created")
	return user, nil
}

// IssueToken checks the credentials and returns the user's token, creating it
// on the first successful call.
func (s *UserService) IssueToken(ctx context.Context, input TokenInput) (string, error) {
	input.Email = model.NormalizeEmail(input.Email)
	if verr := validateInput(input); verr.HasErrors() {
		return "", verr
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return "", ErrInvalidCredential
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return token, nil
}

// AuthenticateToken resolves a token to its active owner.
func (s *UserService) AuthenticateToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	userID, ok, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	verr := validateInput(input)
	if input.Password != nil && *input.Password != "" {
		s.checkPassword(verr, *input.Password)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.CodeforcesHandle != nil {
		user.CodeforcesHandle = model.Handle(*input.CodeforcesHandle)
	}
	if input.OmegaUpHandle != nil {
		user.OmegaUpHandle = model.Handle(*input.OmegaUpHandle)
	}
	if input.KattisHandle != nil {
		user.KattisHandle = model.Handle(*input.KattisHandle)
	}
	if err := s.checkHandles(ctx, verr, user); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if input.Password != nil {
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, duplicateAsValidation(err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) insert(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		return duplicateAsValidation(err)
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) checkPassword(verr *ValidationError, password string) {
	if password == "" {
		return
	}
	if utf8.RuneCountInString(password) < s.minPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters long", s.minPasswordLength))
	}
}

// checkUnique reports taken email and handles as field errors before the
// insert so that every collision is returned at once.
func (s *UserService) checkUnique(ctx context.Context, verr *ValidationError, user *model.User) error {
	if user.Email != "" {
		existing, err := s.userRepo.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			verr.Add("email", "user with this email already exists")
		}
	}
	return s.checkHandles(ctx, verr, user)
}

func (s *UserService) checkHandles(ctx context.Context, verr *ValidationError, user *model.User) error {
	handles := []struct {
		field string
		value *string
	}{
		{"codeforces_handle", user.CodeforcesHandle},
		{"omegaup_handle", user.OmegaUpHandle},
		{"kattis_handle", user.KattisHandle},
	}
	for _, h := range handles {
		if h.value == nil {
			continue
		}
		taken, err := s.userRepo.HandleTaken(ctx, h.field, *h.value, user.ID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add(h.field, fmt.Sprintf("user with this %s already exists", h.field))
		}
	}
	return nil
}

// duplicateAsValidation covers the window between the uniqueness pre-check
// and the write.
func duplicateAsValidation(err error) error {
	var dupErr *repository.DuplicateKeyError
	if !errors.As(err, &dupErr) {
		return err
	}
	verr := newValidationError()
	if dupErr.Field == "" {
		verr.Add(NonFieldErrors, "a user with these details already exists")
	} else {
		verr.Add(dupErr.Field, fmt.Sprintf("user with this %s already exists", dupErr.Field))
	}
	return verr
}
