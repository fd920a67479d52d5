package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/errcode"
)

// fail logs err at a level matching its kind and writes the failure envelope.
func fail(c *gin.Context, err error) {
	logger := middleware.LoggerFromContext(c)
	switch kind := errcode.KindOf(err); kind {
	case errcode.KindInternal, errcode.KindUpstream:
		logger.Error("request failed", slog.String("kind", kind.String()), slog.Any("error", err))
	default:
		logger.Info("request rejected", slog.String("kind", kind.String()), slog.String("reason", err.Error()))
	}
	envelope.Fail(c, err)
}

// bindJSON decodes the body into dst and runs its binding tags. Failures come
// back as a validation error naming the first offending field.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errcode.Wrap(errcode.KindValidation, fieldMessage(verrs[0]), err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return errcode.Wrap(errcode.KindValidation, "request body is required", err)
	case errors.As(err, &syntaxErr):
		return errcode.Wrap(errcode.KindValidation, "malformed JSON body", err)
	case errors.As(err, &typeErr):
		return errcode.Wrap(errcode.KindValidation, fmt.Sprintf("%s has the wrong type", typeErr.Field), err)
	}
	return errcode.Wrap(errcode.KindValidation, "invalid request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	}
	return field + " is invalid"
}

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report the JSON name of a field.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}
