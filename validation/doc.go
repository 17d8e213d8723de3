// Package validation validates configuration and request input.
//
// Struct tag validation uses go-playground/validator:
//
//	type Config struct {
//	    SaveFileMode string `validate:"omitempty,max=64"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect errors in a Validator:
//
//	v := validation.New()
//	v.RequiredUUID("id", id)
//	if err := v.Validate(); err != nil { ... }
//
// Both return an *errors.AppError with code INVALID_INPUT and a "fields"
// detail listing each failing field.
package validation
