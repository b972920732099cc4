package controllers

import (
	"cashbook/middleware"
	"cashbook/models"
	"cashbook/services"
	"cashbook/utils"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	hasNumber  = regexp.MustCompile(`[0-9]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*]`)
)

// newValidator создает валидатор с правилом сложности пароля
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return hasNumber.MatchString(password) &&
			hasUpper.MatchString(password) &&
			hasLower.MatchString(password) &&
			hasSpecial.MatchString(password)
	})
	return validate
}

// validateRequest валидирует DTO и собирает ошибки в одно сообщение
func validateRequest(v *validator.Validate, dto interface{}) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var errorMessages []string
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required", "required_if":
			errorMessages = append(errorMessages, "field "+field+" is required")
		case "email":
			errorMessages = append(errorMessages, "field "+field+" must be a valid email")
		case "min":
			errorMessages = append(errorMessages, "field "+field+" must be at least "+e.Param()+" characters")
		case "max":
			errorMessages = append(errorMessages, "field "+field+" must be at most "+e.Param()+" characters")
		case "oneof":
			errorMessages = append(errorMessages, "field "+field+" must be one of: "+e.Param())
		case "datetime":
			errorMessages = append(errorMessages, "field "+field+" must match "+e.Param())
		case "password":
			errorMessages = append(errorMessages, "field "+field+" must contain a digit, an upper and lower case letter and one of !@#$%^&*")
		default:
			errorMessages = append(errorMessages, "field "+field+" is invalid")
		}
	}
	return errors.New(strings.Join(errorMessages, "; "))
}

// writeJSON отправляет ответ в формате JSON
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.Logger().Warn("failed to encode response", zap.Error(err))
	}
}

// writeServiceError переводит ошибку сервиса в HTTP статус
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbiddenBranch), errors.Is(err, services.ErrAdminOnly):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, services.ErrUserNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidStatusTransition), errors.Is(err, services.ErrUserExists):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	default:
		utils.Logger().Error("request failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON читает тело запроса, неизвестные поля считаются ошибкой
func decodeJSON(r *http.Request, dto interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dto)
}

// actorFromRequest собирает пользователя из данных токена
func actorFromRequest(r *http.Request) (services.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   models.Role(claims.Role),
		Branch: claims.Branch,
	}, true
}
