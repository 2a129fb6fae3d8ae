package identity

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	users   map[string]User
	byPhone map[string]string
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User), byPhone: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[user.Phone]; exists {
		return ErrDuplicatePhone
	}
	r.users[user.ID] = copyUser(user)
	r.byPhone[user.Phone] = user.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *memoryRepository) SetOTP(_ context.Context, id string, otp *OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.OTP = nil
	if otp != nil {
		user.OTP = &OTP{CodeHash: append([]byte(nil), otp.CodeHash...), Expiry: otp.Expiry}
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) UpdateBalances(_ context.Context, id string, topUp, winning decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.TopUpBalance = topUp
	user.WinningBalance = winning
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func copyUser(u User) User {
	if u.OTP != nil {
		otp := *u.OTP
		otp.CodeHash = append([]byte(nil), u.OTP.CodeHash...)
		u.OTP = &otp
	}
	return u
}
