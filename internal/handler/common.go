package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

var errInvalidBody = errors.New("invalid request body")

// Validator adapts validator/v10 to echo.Validator.  Field names in
// errors are the json tag names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			details := make(map[string]string, len(errs))
			for _, fe := range errs {
				details[fe.Field()] = validationMessage(fe)
			}
			return &validationError{details: details}
		}
		return err
	}
	return nil
}

// validationError carries one message per offending field.
type validationError struct {
	details map[string]string
}

func (e *validationError) Error() string { return "validation failed" }

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid url"
	}
	return "is invalid"
}

// bindAndValidate decodes the body into req and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	return c.Validate(req)
}

// respondError writes the JSON error matching err.  Errors without a
// mapping are logged and reported as 500.
func respondError(c echo.Context, err error) error {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "details": verr.details})
	case errors.Is(err, errInvalidBody),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidSeats),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidReservationID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case repository.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrDuplicateStoreName),
		errors.Is(err, repository.ErrDuplicateFavorite),
		errors.Is(err, repository.ErrDuplicateReview),
		errors.Is(err, repository.ErrDuplicateTable),
		errors.Is(err, repository.ErrDuplicateStaff),
		errors.Is(err, repository.ErrAvailabilityExists),
		errors.Is(err, repository.ErrReservationCodeUsed),
		errors.Is(err, service.ErrInsufficientAvailability),
		errors.Is(err, service.ErrNotReservable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logger.FromEcho(c).Warn("request timed out", zap.Error(err))
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	}
	logger.FromEcho(c).Error("request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func isAdmin(c echo.Context) bool {
	return middleware.Role(c) == model.RoleAdmin
}

// selfOrAdmin returns ErrForbidden unless the caller is userID or an admin.
func selfOrAdmin(c echo.Context, userID string) error {
	if isAdmin(c) || (userID != "" && middleware.UserID(c) == userID) {
		return nil
	}
	return repository.ErrForbidden
}

// storeAccess loads a store and checks that the caller may manage it: the
// store's owner, an admin, or, when staff is non-nil, a staff member of
// the store.
func storeAccess(ctx context.Context, c echo.Context, stores *repository.StoreRepo, staff *repository.StaffRepo, storeID string) (*model.Store, error) {
	store, err := stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	uid := middleware.UserID(c)
	if isAdmin(c) || store.OwnerID == uid {
		return store, nil
	}
	if staff != nil && uid != "" {
		ok, err := staff.IsStaff(ctx, storeID, uid)
		if err != nil {
			return nil, err
		}
		if ok {
			return store, nil
		}
	}
	return nil, repository.ErrForbidden
}
