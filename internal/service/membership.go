package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/atinyakov/memberctl/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the persistence operations
// required by the membership service.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, username string, cascade bool) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	FindByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	FindByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	CountActiveSince(ctx context.Context, cutoff time.Time) (int, error)
	SetPassword(ctx context.Context, id string, hash []byte) error
	RecordFailedAttempt(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Unlock(ctx context.Context, username string) (bool, error)
}

// Policy holds the provider rules for passwords, lockout and presence.
type Policy struct {
	MinPasswordLength          int
	MaxInvalidPasswordAttempts int
	PasswordAttemptWindow      time.Duration
	UserIsOnlineWindow         time.Duration
	RequiresUniqueEmail        bool
	RequiresQuestionAndAnswer  bool
	GeneratedPasswordLength    int
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
}

// DefaultPolicy returns the stock provider policy.
func DefaultPolicy() Policy {
	return Policy{
		MinPasswordLength:          7,
		MaxInvalidPasswordAttempts: 5,
		PasswordAttemptWindow:      10 * time.Minute,
		UserIsOnlineWindow:         15 * time.Minute,
		RequiresUniqueEmail:        true,
		GeneratedPasswordLength:    14,
	}
}

// newUserInput is validated before any store access.
type newUserInput struct {
	Username string `validate:"required,max=256,excludesall=0x2C"`
	Password string `validate:"required"`
	Email    string `validate:"required,email,max=256"`
	Question string `validate:"max=256"`
	Answer   string `validate:"max=128"`
}

// MembershipService implements user operations by delegating
// storage to a UserRepository and enforcing a Policy.
type MembershipService struct {
	repo     UserRepository
	policy   Policy
	validate *validator.Validate
	now      func() time.Time
}

// NewMembershipService constructs a MembershipService using the provided repository and policy.
func NewMembershipService(repo UserRepository, policy Policy) *MembershipService {
	if policy.HashCost == 0 {
		policy.HashCost = bcrypt.DefaultCost
	}
	if policy.GeneratedPasswordLength == 0 {
		policy.GeneratedPasswordLength = DefaultPolicy().GeneratedPasswordLength
	}
	return &MembershipService{
		repo:     repo,
		policy:   policy,
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateUser validates and stores a new user. Rule violations are reported
// through the status with a nil error; store failures return
// StatusProviderError and the error.
func (s *MembershipService) CreateUser(
	ctx context.Context,
	username, password, email, question, answer string,
	approved bool,
	id uuid.UUID,
) (models.CreateStatus, error) {
	in := newUserInput{
		Username: strings.TrimSpace(username),
		Password: password,
		Email:    strings.TrimSpace(email),
		Question: strings.TrimSpace(question),
		Answer:   normalizeAnswer(answer),
	}
	if status := s.check(in); status != models.StatusSuccess {
		return status, nil
	}

	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		return models.StatusDuplicateUserName, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.StatusProviderError, err
	}

	if s.policy.RequiresUniqueEmail {
		taken, err := s.repo.EmailExists(ctx, in.Email)
		if err != nil {
			return models.StatusProviderError, err
		}
		if taken {
			return models.StatusDuplicateEmail, nil
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.policy.HashCost)
	if err != nil {
		return models.StatusInvalidPassword, nil
	}

	var answerHash []byte
	if in.Answer != "" {
		answerHash, err = bcrypt.GenerateFromPassword([]byte(in.Answer), s.policy.HashCost)
		if err != nil {
			return models.StatusInvalidAnswer, nil
		}
	}

	now := s.now()
	u := &models.User{
		ID:                 id.String(),
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       passwordHash,
		PasswordQuestion:   in.Question,
		PasswordAnswerHash: answerHash,
		IsApproved:         approved,
		LastActivityAt:     now,
		CreatedAt:          now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.StatusDuplicateUserName, nil
		}
		return models.StatusProviderError, err
	}
	return models.StatusSuccess, nil
}

// check maps validation failures onto create statuses.
func (s *MembershipService) check(in newUserInput) models.CreateStatus {
	if err := s.validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) || len(ve) == 0 {
			return models.StatusProviderError
		}
		switch ve[0].Field() {
		case "Username":
			return models.StatusInvalidUserName
		case "Password":
			return models.StatusInvalidPassword
		case "Email":
			return models.StatusInvalidEmail
		case "Question":
			return models.StatusInvalidQuestion
		default:
			return models.StatusInvalidAnswer
		}
	}

	if err := s.validate.Var(in.Password, fmt.Sprintf("min=%d", s.policy.MinPasswordLength)); err != nil {
		return models.StatusInvalidPassword
	}
	if s.policy.RequiresQuestionAndAnswer {
		if in.Question == "" {
			return models.StatusInvalidQuestion
		}
		if in.Answer == "" {
			return models.StatusInvalidAnswer
		}
	}
	return models.StatusSuccess
}

// DeleteUser removes the user; cascade also removes role memberships.
func (s *MembershipService) DeleteUser(ctx context.Context, username string, cascade bool) (bool, error) {
	return s.repo.Delete(ctx, username, cascade)
}

// ListAllUsers returns every user ordered by name.
func (s *MembershipService) ListAllUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// FindUsersByEmail returns one page of users whose email matches the LIKE pattern.
func (s *MembershipService) FindUsersByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return s.repo.FindByEmail(ctx, pattern, pageIndex, pageSize)
}

// FindUsersByName returns one page of users whose name matches the LIKE pattern.
func (s *MembershipService) FindUsersByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return s.repo.FindByName(ctx, pattern, pageIndex, pageSize)
}

// CountOnline counts users active within the online window.
func (s *MembershipService) CountOnline(ctx context.Context) (int, error) {
	return s.repo.CountActiveSince(ctx, s.now().Add(-s.policy.UserIsOnlineWindow))
}

// ResetPassword replaces the password of username with a generated one and
// returns it. When the policy requires question and answer, a wrong answer
// counts as a failed attempt.
func (s *MembershipService) ResetPassword(ctx context.Context, username, answer string) (string, error) {
	u, err := s.lookup(ctx, username)
	if err != nil {
		return "", err
	}
	if u.IsLockedOut {
		return "", fmt.Errorf("%w: %s", ErrUserLockedOut, u.Username)
	}

	if s.policy.RequiresQuestionAndAnswer {
		if bcrypt.CompareHashAndPassword(u.PasswordAnswerHash, []byte(normalizeAnswer(answer))) != nil {
			if err := s.recordFailure(ctx, u); err != nil {
				return "", err
			}
			return "", ErrWrongAnswer
		}
	}

	password, err := generatePassword(s.policy.GeneratedPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.policy.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPassword(ctx, u.ID, hash); err != nil {
		return "", err
	}
	return password, nil
}

// UnlockUser clears the lockout of username. Returns false for unknown users.
func (s *MembershipService) UnlockUser(ctx context.Context, username string) (bool, error) {
	return s.repo.Unlock(ctx, username)
}

// ValidateUser checks the credentials. Success refreshes the user's
// activity; failure counts toward lockout. Unknown, locked and unapproved
// users never validate.
func (s *MembershipService) ValidateUser(ctx context.Context, username, password string) (bool, error) {
	u, err := s.lookup(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.IsLockedOut || !u.IsApproved {
		return false, nil
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return false, s.recordFailure(ctx, u)
	}
	if err := s.repo.Touch(ctx, u.ID, s.now()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MembershipService) lookup(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// recordFailure counts a failed attempt inside the attempt window and locks
// the account when the count reaches the maximum. The store applies both
// atomically so concurrent failures are never lost.
func (s *MembershipService) recordFailure(ctx context.Context, u *models.User) error {
	_, _, err := s.repo.RecordFailedAttempt(ctx, u.ID, s.now(),
		s.policy.PasswordAttemptWindow, s.policy.MaxInvalidPasswordAttempts)
	return err
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%*-_=+"

// generatePassword draws n characters uniformly from passwordAlphabet.
func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
