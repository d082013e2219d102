package auth

import (
	"errors"
	"strings"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}
}

func createUser(c *fiber.Ctx, users UserStore, body RegisterRequest, role models.UserRole) (*models.User, error) {
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.Name = strings.TrimSpace(body.Name)

	if body.Email == "" || body.Password == "" || body.Name == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Nom, email et mot de passe obligatoires")
	}
	if len(body.Password) < minPasswordLength {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Le mot de passe doit contenir au moins 8 caractères")
	}

	if _, err := users.FindByEmail(c.UserContext(), body.Email); err == nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Cet email est déjà utilisé")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Fiber(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Mot de passe non traité")
	}

	user := &models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := users.Create(c.UserContext(), user); err != nil {
		return nil, apperr.Fiber(err)
	}
	return user, nil
}

// POST /api/auth/register-manager (sadece hiç yönetici yokken)
func RegisterManagerHandler(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		count, err := users.CountByRole(c.UserContext(), models.RoleManager)
		if err != nil {
			return apperr.Fiber(err)
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Un responsable existe déjà")
		}

		user, err := createUser(c, users, body, models.RoleManager)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(userResponse(user))
	}
}

// POST /api/auth/staff (yönetici ekip hesabı açar)
func RegisterStaffHandler(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		user, err := createUser(c, users, body, models.RoleStaff)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(userResponse(user))
	}
}

func LoginHandler(users UserStore, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.FindByEmail(c.UserContext(), body.Email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
			}
			return apperr.Fiber(err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
		}

		token, expires, err := IssueToken(secret, user, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Session non créée")
		}

		return c.JSON(fiber.Map{
			"token":     token,
			"expiresAt": expires,
			"user":      userResponse(user),
		})
	}
}

func MeHandler(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := SessionFrom(c)
		if user, err := users.FindByID(c.UserContext(), sess.UserID); err == nil {
			return c.JSON(userResponse(user))
		}

		// Kullanıcı okunamazsa jetondaki bilgiyle dön
		return c.JSON(fiber.Map{
			"id":   sess.UserID,
			"name": sess.Name,
			"role": sess.Role,
		})
	}
}
