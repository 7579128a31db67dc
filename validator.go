package main

import "github.com/go-playground/validator/v10"

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// CreatePollRequest carries the parsed arguments of the create command.
type CreatePollRequest struct {
	Question string   `validate:"required"`
	Choices  []string `validate:"required,min=2,dive,required"`
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
