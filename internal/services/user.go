package services

import (
	"context"
	"errors"
	"strings"

	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// dummyPassword is hashed once per service so unknown usernames cost a
// bcrypt comparison, the same as a wrong password.
const dummyPassword = "messagely-no-such-user"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	PasswordHash(ctx context.Context, username string) (string, error)
	UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error)
	List(ctx context.Context) ([]types.UserProfile, error)
	Get(ctx context.Context, username string) (types.User, error)
	MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error)
}

// RegisterInput carries the fields of a new account. Password is plaintext.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserService encapsulates user directory use-cases.
type UserService struct {
	repo       UserRepository
	workFactor int
	dummyHash  []byte
	logger     *logger.Logger
}

func NewUserService(repo UserRepository, workFactor int, log *logger.Logger) *UserService {
	if workFactor < bcrypt.MinCost || workFactor > bcrypt.MaxCost {
		workFactor = bcrypt.DefaultCost
	}
	if log == nil {
		log = logger.Noop()
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), workFactor)
	if err != nil {
		log.Warn("failed to prepare dummy password hash", "error", err)
	}
	return &UserService{
		repo:       repo,
		workFactor: workFactor,
		dummyHash:  dummyHash,
		logger:     log,
	}
}

// Register hashes the password and stores a new user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Username == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" || in.Phone == "" {
		return types.User{}, apperr.Validation("missing required fields")
	}
	if len(in.Password) > maxPasswordBytes {
		return types.User{}, apperr.Validation("password must be at most 72 bytes")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.workFactor)
	if err != nil {
		return types.User{}, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:  in.Username,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	})
	if err != nil {
		return types.User{}, err
	}

	s.logger.InfoContext(ctx, "user registered", "username", user.Username)
	return user, nil
}

// Authenticate reports whether password matches the stored credential.
// An unknown username is reported as false, the same as a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	hash, err := s.repo.PasswordHash(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return false, nil
		}
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperr.Wrap(apperr.CodeInternal, "failed to verify password", err)
	}
}

func (s *UserService) UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error) {
	return s.repo.UpdateLoginTimestamp(ctx, username)
}

func (s *UserService) All(ctx context.Context) ([]types.UserProfile, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return types.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error) {
	return s.repo.MessagesFrom(ctx, username)
}

func (s *UserService) MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error) {
	return s.repo.MessagesTo(ctx, username)
}
