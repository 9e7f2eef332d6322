package validator

import (
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"

	"venuebook/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate returns field -> failed tag for every invalid field of v.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Struct validates v and reports the first failing field, in field-name order,
// as a domain.ValidationError.
func Struct(v any) error {
	fields := Validate(v)
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &domain.ValidationError{Field: names[0], Reason: "failed '" + fields[names[0]] + "' validation"}
}
