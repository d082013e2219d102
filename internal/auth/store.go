package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"

	"gorm.io/gorm"
)

// KeyUsers: uzak veritabanı yokken hesapların tutulduğu yerel anahtar
const KeyUsers = "haccp_users"

var ErrUserNotFound = errors.New("kullanıcı bulunamadı")

type UserStore interface {
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// NewUserStore: uzak veritabanı varsa orada, yoksa yerel kopyada
func NewUserStore(db *gorm.DB, m mirror.Store) UserStore {
	if db != nil {
		return &gormUserStore{db: db}
	}
	return &mirrorUserStore{m: m}
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, apperr.Classify("count users", err)
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	return apperr.Classify("create user", s.db.WithContext(ctx).Create(user).Error)
}

func (s *gormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Classify("find user", err)
	}
	return &user, nil
}

func (s *gormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Classify("find user", err)
	}
	return &user, nil
}

// mirrorUserStore: tek makinelik kurulum (DATABASE_DSN yok)
type mirrorUserStore struct {
	m  mirror.Store
	mu sync.Mutex
}

func (s *mirrorUserStore) load(ctx context.Context) ([]models.User, error) {
	users, err := mirror.Load[models.User](ctx, s.m, KeyUsers)
	if err != nil {
		return nil, apperr.E(apperr.KindUnavailable, "load users", err)
	}
	return users, nil
}

func (s *mirrorUserStore) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	users, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, u := range users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *mirrorUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	var maxID uint
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperr.E(apperr.KindConflict, "create user", errors.New("Cet email est déjà utilisé"))
		}
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	now := time.Now()
	user.ID = maxID + 1
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := mirror.Save(ctx, s.m, KeyUsers, append(users, *user)); err != nil {
		return apperr.E(apperr.KindUnavailable, "create user", err)
	}
	return nil
}

func (s *mirrorUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *mirrorUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}
