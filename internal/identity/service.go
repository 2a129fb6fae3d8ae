package identity

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/clock"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether phone is exactly ten digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Service manages the user lifecycle.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService creates a new identity service.
func NewService(repo Repository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Service{repo: repo, clock: clk}
}

// Register validates and stores a new user with zero balances.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return User{}, apperr.Validation("name is required")
	}
	if !ValidPhone(reg.Phone) {
		return User{}, apperr.Validation("Invalid phone number")
	}

	now := s.clock.Now()
	user := User{
		ID:             uuid.New().String(),
		Name:           name,
		Phone:          reg.Phone,
		Email:          strings.TrimSpace(reg.Email),
		TopUpBalance:   decimal.Zero,
		WinningBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			return User{}, apperr.Duplicate("Phone number already registered")
		}
		return User{}, apperr.Internal("could not create user", err)
	}

	return user, nil
}

// Get loads a user by id, mapping a missing record to NotFound.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, lookupError(err)
	}
	return user, nil
}

// GetByPhone loads a user by phone number, mapping a missing record to NotFound.
func (s *Service) GetByPhone(ctx context.Context, phone string) (User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return User{}, lookupError(err)
	}
	return user, nil
}

// Repository exposes the underlying store for collaborators that write balances.
func (s *Service) Repository() Repository {
	return s.repo
}

func lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	return apperr.Internal("could not load user", err)
}
