package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// RequireSession: Bearer jetonu çözer, Session'ı c.Locals'a koyar
func RequireSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Connexion requise")
		}

		sess, err := ParseToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Session invalide ou expirée, reconnectez-vous")
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ManagerOnly: personel ekleme, kayıt silme, stok içe aktarma ve audit okuma responsable'a ait
func ManagerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Connexion requise")
		}
		if !sess.IsManager() {
			return fiber.NewError(fiber.StatusForbidden, "Action réservée au responsable")
		}
		return c.Next()
	}
}

func SessionFrom(c *fiber.Ctx) (Session, bool) {
	sess, ok := c.Locals(sessionKey).(Session)
	return sess, ok
}

// CurrentUser: audit kayıtları için kullanıcı id ve adı
func CurrentUser(c *fiber.Ctx) (uint, string) {
	sess, _ := SessionFrom(c)
	return sess.UserID, sess.Name
}
