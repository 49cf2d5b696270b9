package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks the configuration against its struct tags.
func (v *Validator) Validate(config *Config) error {
	err := v.validate.Struct(config)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var problems []string
	for _, fe := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
