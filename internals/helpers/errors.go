// file: internals/helpers/errors.go
package helper

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindAuthentication:
		return fiber.StatusUnauthorized
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// AppError is the only error shape services return to controllers.
type AppError struct {
	Kind       ErrorKind
	Message    string
	Fields     map[string][]string
	RetryAfter time.Duration
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func ErrValidation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func ErrValidationFields(msg string, fields map[string][]string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: msg}
}

func ErrNotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func ErrRateLimited(msg string, retryAfter time.Duration) *AppError {
	return &AppError{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

func ErrInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf reports the taxonomy kind of err; unknown errors are internal.
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}

/* ===============================
   HTTP rendering
=================================*/

// WriteError renders any error as the standard error envelope.
func WriteError(c *fiber.Ctx, err error) error {
	var ae *AppError
	if errors.As(err, &ae) {
		status := ae.Kind.Status()
		switch {
		case ae.Kind == KindInternal:
			zap.L().Error("internal error",
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("reqid")),
				zap.Error(ae))
			return JsonError(c, status, ae.Message)
		case ae.Kind == KindRateLimited && ae.RetryAfter > 0:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
		case len(ae.Fields) > 0:
			return JsonValidationError(c, ae.Message, ae.Fields)
		}
		return JsonError(c, status, ae.Message)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, "validation failed", ValidationFields(ve))
	}

	zap.L().Error("unhandled error",
		zap.String("path", c.Path()),
		zap.Any("request_id", c.Locals("reqid")),
		zap.Error(err))
	return JsonError(c, fiber.StatusInternalServerError, "Internal server error")
}

// FiberErrorHandler plugs WriteError into fiber.Config.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err)
}

/* ===============================
   Storage errors
=================================*/

var (
	pgKeyDetail     = regexp.MustCompile(`Key \(([^)]+)\)`)
	sqliteUniqueCol = regexp.MustCompile(`(?i)unique constraint failed: (.+)$`)
)

// IsDuplicateKey detects unique violations across pgx, lib/pq, gorm and sqlite.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "violates unique constraint") ||
		strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "sqlstate 23505")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "foreign key constraint")
}

// DuplicateKeyFields returns the columns named by a unique violation, if the driver reports them.
func DuplicateKeyFields(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			return m[1]
		}
		return pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if m := pgKeyDetail.FindStringSubmatch(pqErr.Detail); len(m) == 2 {
			return m[1]
		}
		return pqErr.Constraint
	}
	if m := sqliteUniqueCol.FindStringSubmatch(err.Error()); len(m) == 2 {
		cols := strings.Split(m[1], ",")
		for i, col := range cols {
			col = strings.TrimSpace(col)
			if dot := strings.LastIndex(col, "."); dot >= 0 {
				col = col[dot+1:]
			}
			cols[i] = col
		}
		return strings.Join(cols, ", ")
	}
	return ""
}

// TranslateDBError maps storage errors into the taxonomy; raw driver text never reaches clients.
func TranslateDBError(err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &AppError{Kind: KindNotFound, Message: "Record not found", Err: err}
	case IsDuplicateKey(err):
		msg := "This record already exists"
		if f := DuplicateKeyFields(err); f != "" {
			msg = fmt.Sprintf("A record with this %s already exists", f)
		}
		return &AppError{Kind: KindConflict, Message: msg, Err: err}
	case isForeignKeyViolation(err):
		return &AppError{Kind: KindValidation, Message: "Invalid reference to related record", Err: err}
	}
	return ErrInternal(err)
}
