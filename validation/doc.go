// Package validation provides input validation utilities for the module.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs and request payloads.
//
// # Struct Tag Validation
//
//	type ServerConfig struct {
//	    Addr     string `validate:"required"`
//	    Artifact string `validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(name != "", "name", "name is required")
//	err := v.Validate()
package validation
