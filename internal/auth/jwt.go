package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"haccp-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Personel oturumu bir servis vardiyası, yönetici oturumu bir gün sürer
const (
	staffSessionTTL   = 12 * time.Hour
	managerSessionTTL = 24 * time.Hour
	tokenIssuer       = "haccp-registre"
)

var errInvalidSession = errors.New("session invalide")

// Session: jetondan çözülen ve istek boyunca taşınan kullanıcı
type Session struct {
	UserID uint
	Name   string
	Role   models.UserRole
}

func (s Session) IsManager() bool { return s.Role == models.RoleManager }

// sessionClaims: kullanıcı id'si Subject alanında taşınır
type sessionClaims struct {
	Name string          `json:"name"`
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func sessionTTL(role models.UserRole) time.Duration {
	if role == models.RoleManager {
		return managerSessionTTL
	}
	return staffSessionTTL
}

// IssueToken: rolüne göre süreli imzalı jeton ve bitiş zamanı
func IssueToken(secret string, user *models.User, now time.Time) (string, time.Time, error) {
	expires := now.Add(sessionTTL(user.Role))
	claims := sessionClaims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jeton imzalanamadı: %w", err)
	}
	return signed, expires, nil
}

// ParseToken: sadece HS256, bu uygulamanın yayımladığı, süresi dolmamış ve rolü bilinen jetonlar geçer
func ParseToken(secret, raw string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errInvalidSession, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Session{}, fmt.Errorf("%w: kullanıcı yok", errInvalidSession)
	}
	switch claims.Role {
	case models.RoleManager, models.RoleStaff:
	default:
		return Session{}, fmt.Errorf("%w: rol %q", errInvalidSession, claims.Role)
	}
	return Session{UserID: uint(id), Name: claims.Name, Role: claims.Role}, nil
}
