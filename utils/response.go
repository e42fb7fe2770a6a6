package utils

import (
	"log"

	"luxurystay-server/services"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"title": title, "detail": detail, "status": statusCode})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(
		iris.StatusInternalServerError,
		"Internal Server Error",
		"An unexpected error occurred.",
		ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusConflict, "Conflict", "Email already registered.", ctx)
}

// HandleValidationErrors maps validator violations onto a field-level 422
// payload; anything else is treated as a malformed body.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		validationErrors := make([]validationError, 0, len(errs))
		for _, e := range errs {
			validationErrors = append(validationErrors, validationError{
				ActualTag: e.ActualTag(),
				Namespace: e.Namespace(),
				Kind:      e.Kind().String(),
				Type:      e.Type().String(),
				Value:     e.Value(),
				Param:     e.Param(),
			})
		}

		ctx.StopWithJSON(iris.StatusUnprocessableEntity, wrapValidationErrors(validationErrors))
		return
	}

	CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
}

type validationError struct {
	ActualTag string      `json:"tag"`
	Namespace string      `json:"namespace"`
	Kind      string      `json:"kind"`
	Type      string      `json:"type"`
	Value     interface{} `json:"value"`
	Param     string      `json:"param"`
}

func wrapValidationErrors(errs []validationError) iris.Map {
	return iris.Map{
		"title":            "Validation Error",
		"detail":           "One or more fields failed to be validated",
		"status":           iris.StatusUnprocessableEntity,
		"validationErrors": errs,
	}
}

// RespondError maps a domain error from the services layer onto an HTTP
// response. Invariant failures are logged and returned opaque; everything
// else surfaces its message (and offending field) to the caller.
func RespondError(ctx iris.Context, err error) {
	var de *services.Error
	if !asDomainError(err, &de) {
		log.Printf("unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		CreateInternalServerError(ctx)
		return
	}

	switch de.Kind {
	case services.KindValidation:
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"title":  "Validation Error",
			"detail": de.Msg,
			"field":  de.Field,
			"status": iris.StatusBadRequest,
		})
	case services.KindConflict:
		CreateError(iris.StatusConflict, "Conflict", de.Msg, ctx)
	case services.KindNotFound:
		CreateError(iris.StatusNotFound, "Not Found", de.Msg, ctx)
	case services.KindForbidden:
		CreateError(iris.StatusForbidden, "Forbidden", de.Msg, ctx)
	default:
		// Financial invariant failures must never leak internal state.
		log.Printf("invariant failure on %s %s: %v", ctx.Method(), ctx.Path(), err)
		CreateInternalServerError(ctx)
	}
}

func asDomainError(err error, target **services.Error) bool {
	for err != nil {
		if de, ok := err.(*services.Error); ok {
			*target = de
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": iris.Map{},
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}
