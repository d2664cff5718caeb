package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"account_service/internal/logger"
	"account_service/internal/mailer"
	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/storage"
	"account_service/internal/utils"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email or phone already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("wrong password")
	ErrInvalidRole        = errors.New("role must be user or admin")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")
	ErrInvalidFileFormat  = errors.New("invalid file format. only .jpg, .jpeg, .png, .gif, .webp are allowed")
	ErrFileSizeExceeded   = errors.New("file size exceeds limit")
)

const (
	// RegisterSessionTTL is the validity of the token issued at registration
	RegisterSessionTTL = 24 * time.Hour
	// LoginSessionTTL is the validity of the token issued at login
	LoginSessionTTL = time.Hour
	ResetTokenTTL   = time.Hour

	MaxImageSize = 5 * 1024 * 1024 // 5MB
)

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// AuthService provides the account operations
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, identifier, password string) (*model.User, string, error)
	EditProfile(ctx context.Context, userID int, req model.EditProfileRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangeProfileImage(ctx context.Context, userID int, file *multipart.FileHeader) (string, error)
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]model.UserSummary, error)
	ValidateSession(ctx context.Context, token string) (*utils.JWTClaims, error)
}

type authService struct {
	userRepo     repository.UserRepository
	jwtUtil      *utils.JWTUtil
	mailer       mailer.Mailer
	files        storage.FileStore
	resetURLBase string
	now          func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, m mailer.Mailer, files storage.FileStore, resetURLBase string) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtUtil:      jwtUtil,
		mailer:       m,
		files:        files,
		resetURLBase: strings.TrimRight(resetURLBase, "/"),
		now:          time.Now,
	}
}

// Register creates a new user account and signs a session token for it
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return nil, "", ErrInvalidRole
	}

	// Advisory only: the unique constraints decide under concurrent registration
	existingUser, err := s.userRepo.FindByEmailOrPhone(ctx, req.Email, req.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashedPassword,
		Role:         req.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}
	logger.Infof("User %d registered with role %s", user.ID, user.Role)

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role, user.TokenVersion, RegisterSessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	return user, token, nil
}

// Login authenticates by email or phone and returns a short-lived session token
func (s *authService) Login(ctx context.Context, identifier, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by identifier: %w", err)
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role, user.TokenVersion, LoginSessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// EditProfile updates the caller's name, email and phone after checking that
// no other account already uses the new email or phone
func (s *authService) EditProfile(ctx context.Context, userID int, req model.EditProfileRequest) error {
	taken, err := s.userRepo.ExistsOtherWithEmailOrPhone(ctx, userID, req.Email, req.Phone)
	if err != nil {
		return fmt.Errorf("failed to check identifier uniqueness: %w", err)
	}
	if taken {
		return ErrUserAlreadyExists
	}

	err = s.userRepo.UpdateProfile(ctx, userID, req.Name, req.Email, req.Phone)
	switch {
	case errors.Is(err, repository.ErrDuplicateUser):
		return ErrUserAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case err != nil:
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ForgotPassword stores the hash of a fresh reset token and mails the plaintext
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user for password reset: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	plain, hashed, err := utils.GenerateResetToken()
	if err != nil {
		return err
	}

	expire := s.now().Add(ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashed, expire); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := s.resetURLBase + "/" + plain
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword spends a reset token and sets a new password. Sessions issued
// before the reset stop validating because the token version moves on.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	tokenHash := utils.HashResetToken(token)

	user, err := s.userRepo.FindByResetToken(ctx, tokenHash, s.now())
	if err != nil {
		return fmt.Errorf("failed to find reset token: %w", err)
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepo.ConsumeResetToken(ctx, user.ID, tokenHash, hashedPassword)
	if errors.Is(err, repository.ErrNotFound) {
		// spent by a concurrent request
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	logger.Infof("Password reset completed for user %d", user.ID)
	return nil
}

// ChangeProfileImage stores the upload, points the user record at it and only
// then removes the previous image
func (s *authService) ChangeProfileImage(ctx context.Context, userID int, fileHeader *multipart.FileHeader) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user for image change: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	if fileHeader.Size > MaxImageSize {
		return "", ErrFileSizeExceeded
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		return "", ErrInvalidFileFormat
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	newImage, err := s.files.Save(src, ext)
	if err != nil {
		return "", fmt.Errorf("failed to store profile image: %w", err)
	}

	if err := s.userRepo.UpdateProfileImage(ctx, userID, newImage); err != nil {
		if rmErr := s.files.Remove(newImage); rmErr != nil {
			logger.Warningf("Failed to clean up image %s: %v", newImage, rmErr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to update profile image: %w", err)
	}

	s.removeImage(user.ProfileImage)
	return newImage, nil
}

// removeImage deletes a stored image unless it is the shared default
func (s *authService) removeImage(name string) {
	if name == "" || name == model.DefaultProfileImage {
		return
	}
	if err := s.files.Remove(name); err != nil {
		logger.Warningf("Failed to remove image %s: %v", name, err)
	}
}

// DeleteUser removes a user and, best effort, their stored image
func (s *authService) DeleteUser(ctx context.Context, id int) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find user for deletion: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logger.Infof("User %d deleted", id)

	s.removeImage(user.ProfileImage)
	return nil
}

func (s *authService) GetAllUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ValidateSession verifies the token and that it still belongs to an existing
// user at the current token version. All rejections wrap utils.ErrInvalidToken.
func (s *authService) ValidateSession(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user == nil || user.TokenVersion != claims.TokenVersion {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}
