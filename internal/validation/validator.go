package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/blog-articles-api/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validator checks article and user records against their required-field rules
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()
	// notblank rejects "" and whitespace-only strings
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("validation: register notblank: %v", err))
	}
	// Report fields under the names clients submit
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateCreateArticle validates the payload of a new article
func (v *Validator) ValidateCreateArticle(in *models.CreateArticleInput) error {
	return v.check(in)
}

// ValidateArticle validates the state an article is about to be persisted in
func (v *Validator) ValidateArticle(article *models.Article) error {
	return v.check(article)
}

// ValidateCreateUser validates the payload of a new user
func (v *Validator) ValidateCreateUser(in *models.CreateUserInput) error {
	return v.check(in)
}

func (v *Validator) check(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &models.ValidationError{}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, models.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   fieldValue(fe),
		})
	}
	return result
}

// message renders a failed rule as a human readable sentence
func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be empty"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", field, fe.Tag())
	}
}

func fieldValue(fe validator.FieldError) interface{} {
	if fe.Tag() == "required" {
		return nil
	}
	return fe.Value()
}
