package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/vat"
)

// RegisterValidators adds the "omvat" tag (Oman VAT registration number,
// spaces and dashes ignored) to gin's validator. Call once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v.RegisterValidation("omvat", func(fl validator.FieldLevel) bool {
		return vat.IsValidNumber(fl.Field().String())
	})
}

// bindingError turns binding failures into one validation error listing
// every failing field.
func bindingError(message string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation(message).WithDetail("error", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = tagReason(fe)
	}
	return apperror.NewValidation(message).WithDetail("fields", fields)
}

// fieldPath drops the request struct names from the namespace:
// "UpdateSalesInvoiceRequest.CreateSalesInvoiceRequest.lines[0].itemCode" ->
// "lines[0].itemCode".
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := parts[:0]
	for _, p := range parts {
		if strings.HasSuffix(p, "Request") || strings.HasSuffix(p, "Query") {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func tagReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "omvat":
		return "invalid VAT number"
	case "uuid":
		return "invalid id"
	case "datetime":
		return "expected YYYY-MM-DD"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}
