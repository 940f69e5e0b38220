package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense_tribute/internal/log"
	"expense_tribute/internal/metrics"
	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
	"expense_tribute/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("User with this email already exists")
	ErrUsernameTaken      = errors.New("Username already taken")
	ErrUserAlreadyExists  = errors.New("User already exists")
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidCredentials = errors.New("Invalid email or password")
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Verify(ctx context.Context, claims *utils.JWTClaims) (*model.UserView, error)
	// CreateUser registers an account without issuing a token. admin sets the stored flag.
	CreateUser(ctx context.Context, req model.RegisterRequest, admin bool) (*model.User, error)
	// SetAdmin changes the stored admin flag of the user with email.
	SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtUtil   *utils.JWTUtil
	allowlist model.Allowlist
	logger    *log.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, allowlist model.Allowlist, logger *log.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtUtil:   jwtUtil,
		allowlist: allowlist,
		logger:    logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a new user account and signs a token for it
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	user, err := s.CreateUser(ctx, req, false)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(log.OpRegister, metrics.ResultFailure).Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues(log.OpRegister, metrics.ResultSuccess).Inc()

	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "User created, but failed to generate token", log.FieldUserID, user.ID, log.FieldError, err)
		return nil, fmt.Errorf("user created, but failed to generate token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: s.authView(user)}, nil
}

func (s *authService) CreateUser(ctx context.Context, req model.RegisterRequest, admin bool) (*model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Email is checked before username so the reported conflict is stable.
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           utils.NewID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsAdmin:      admin || s.allowlist.Contains(req.Email),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	if user.IsAdmin {
		s.logger.InfoContext(ctx, "User registered as admin", log.FieldUserID, user.ID, "email", user.Email)
	} else {
		s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	}
	return user, nil
}

// Login authenticates a user and returns a JWT token. Unknown email and
// wrong password fail identically.
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues(log.OpLogin, metrics.ResultFailure).Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.AuthAttemptsTotal.WithLabelValues(log.OpLogin, metrics.ResultSuccess).Inc()

	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: s.authView(user)}, nil
}

// Verify returns the token identity with the admin flag derived from the
// current user record.
func (s *authService) Verify(ctx context.Context, claims *utils.JWTClaims) (*model.UserView, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &model.UserView{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		IsAdmin:  model.IsAdmin(user, s.allowlist),
	}, nil
}

func (s *authService) SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}

	updated, err := s.userRepo.Update(ctx, user.ID, model.UserPatch{IsAdmin: &admin})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "Admin flag changed",
		log.FieldOperation, log.OpUpdate, log.FieldUserID, updated.ID, "is_admin", updated.IsAdmin)
	return updated, nil
}

// authView is the {id,username,email,isAdmin} shape returned with a token.
func (s *authService) authView(user *model.User) model.UserView {
	view := model.NewUserView(user, s.allowlist)
	view.CreatedAt = nil
	return view
}
