package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/helpers/problem"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/sirupsen/logrus"
)

const detailInvalidToken = "Invalid or expired token"

// ErrorHook renders every error returned by a tonic handler as a problem
// document.
func ErrorHook(c *gin.Context, err error) (int, interface{}) {
	var be tonic.BindError
	if errors.As(err, &be) || isValidationErr(err) {
		apiErr := problem.NewBadRequest(c.Request.URL.Path, "Invalid input", invalidParamsFromBinding(err)...)
		c.Header("Content-Type", problem.ContentType)
		return apiErr.Status, apiErr
	}

	apiErr := toProblem(c, err)
	c.Header("Content-Type", problem.ContentType)
	return apiErr.Status, apiErr
}

// abortWithProblem is the ErrorHook equivalent for plain gin handlers.
func abortWithProblem(c *gin.Context, err error) {
	apiErr := toProblem(c, err)
	c.Header("Content-Type", problem.ContentType)
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

func toProblem(c *gin.Context, err error) problem.APIError {
	instance := c.Request.URL.Path

	var apiErr problem.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, services.ErrAssetNotFound):
		return problem.NewNotFound(instance, "Asset not found")
	case errors.Is(err, services.ErrVersionNotFound):
		return problem.NewNotFound(instance, "Version not found")
	case errors.Is(err, services.ErrTokenNotFound):
		return problem.NewNotFound(instance, "Token not found")
	case errors.Is(err, services.ErrInvalidToken):
		return problem.NewForbidden(instance, detailInvalidToken)
	case errors.Is(err, services.ErrInvalidTTL):
		return problem.NewBadRequest(instance, "Invalid query parameter",
			problem.InvalidParam{
				Name:   "expiry_seconds",
				Reason: fmt.Sprintf("must be between %d and %d", -services.MaxTokenTTLSeconds, services.MaxTokenTTLSeconds),
			},
		)
	case errors.Is(err, services.ErrEmptyContent):
		return problem.NewBadRequest(instance, "Empty file",
			problem.InvalidParam{Name: "file", Reason: "must not be empty"},
		)
	case errors.Is(err, services.ErrVersionConflict):
		return problem.NewConflict(instance, "Asset is being published concurrently, try again")
	case isBodyTooLarge(err):
		return problem.NewPayloadTooLarge(instance, "Upload exceeds the maximum allowed size")
	}

	logrus.WithError(err).
		WithFields(logrus.Fields{"method": c.Request.Method, "path": instance}).
		Error("request failed")
	if errors.Is(err, services.ErrStorage) {
		return problem.NewInternalServerError("Storage operation failed")
	}
	return problem.NewInternalServerError("Internal server error")
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "http: request body too large")
}

func isValidationErr(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func invalidParamsFromBinding(err error) []problem.InvalidParam {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []problem.InvalidParam{{Name: "request", Reason: err.Error()}}
	}

	out := make([]problem.InvalidParam, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, problem.InvalidParam{
			Name:   fe.Field(),
			Reason: humanReason(fe),
		})
	}
	return out
}

func humanReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must be a number"
	default:
		return fe.Error()
	}
}
