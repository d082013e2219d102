package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind: hata türü; çağıran taraf "canlı / önbellek / başarısız" ayrımını buna göre yapar
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindNotConfigured
	KindSchema
	KindMalformed
	KindTimeout
	KindNotFound
	KindInvalid
	KindUnknownItem
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindNotConfigured:
		return "not_configured"
	case KindSchema:
		return "schema"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindUnknownItem:
		return "unknown_item"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// PostgreSQL hata kodları
const (
	PgErrUndefinedTable  = "42P01"
	PgErrUndefinedColumn = "42703"
	PgErrUniqueViolation = "23505"
)

type Error struct {
	Kind Kind
	Op   string
	Code string // varsa veritabanı hata kodu
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid: kullanıcıya gösterilecek doğrulama hatası
func Invalid(op, msg string) *Error {
	return &Error{Kind: KindInvalid, Op: op, Err: errors.New(msg)}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message: zincirin en içteki mesajı (kullanıcıya gösterilir)
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return Message(e.Err)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Classify: uzak depodan dönen hatayı türüne göre sarar. Zaten sarılmışsa dokunmaz.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var pgErr *pgconn.PgError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case errors.As(err, &pgErr):
		return &Error{Kind: pgKind(pgErr.Code), Op: op, Code: pgErr.Code, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	case errors.As(err, &netErr):
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	case strings.Contains(strings.ToLower(err.Error()), "no such table"):
		// sqlite (testler ve yerel geliştirme)
		return &Error{Kind: KindSchema, Op: op, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
}

func pgKind(code string) Kind {
	switch {
	case code == PgErrUndefinedTable, code == PgErrUndefinedColumn:
		return KindSchema
	case code == PgErrUniqueViolation:
		return KindConflict
	case strings.HasPrefix(code, "22"):
		return KindMalformed
	default:
		// 08 bağlantı, 53 kaynak, 57 operatör müdahalesi vb.
		return KindUnavailable
	}
}

// HTTPStatus: fiber handler'larında kullanılan durum kodu eşlemesi
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalid:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnknownItem:
		return fiber.StatusUnprocessableEntity
	case KindConflict:
		return fiber.StatusConflict
	case KindTimeout:
		return fiber.StatusGatewayTimeout
	case KindUnavailable, KindNotConfigured, KindSchema:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Fiber: hatayı fiber.Error'a çevirir; ErrorHandler bunu JSON olarak döner
func Fiber(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	status := HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		return fiber.NewError(status, "Erreur interne du serveur")
	}
	return fiber.NewError(status, Message(err))
}
