package services

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/utils"
)

var (
	validate          = validator.New()
	personNamePattern = regexp.MustCompile(`^[a-zA-Zа-яА-Я-]+$`)
)

func validatePersonName(field, value string) error {
	if value == "" {
		return invalid("%s is required", field)
	}
	if validate.Var(value, "max=64") != nil {
		return invalid("%s is too long", field)
	}
	if !personNamePattern.MatchString(value) {
		return invalid("%s may contain only letters and hyphens", field)
	}
	return nil
}

// normalizeEmailInput returns the canonical address or a validation error.
func normalizeEmailInput(value string) (string, error) {
	email := models.NormalizeEmail(value)
	if email == "" {
		return "", invalid("email is required")
	}
	if validate.Var(email, "max=255,email") != nil {
		return "", invalid("email is not a valid address")
	}
	return email, nil
}

func validatePassword(value string) error {
	if value == "" {
		return invalid("password is required")
	}
	if len(value) > auth.MaxPasswordBytes {
		return invalid("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

// validateTitle sanitizes value and checks the stored form.
func validateTitle(value string) (string, error) {
	title := strings.TrimSpace(utils.SanitizeText(value))
	if title == "" {
		return "", invalid("title cannot be empty")
	}
	if validate.Var(title, "max=255") != nil {
		return "", invalid("title is too long")
	}
	return title, nil
}

// validateBody sanitizes value and checks the stored form.
func validateBody(field, value string) (string, error) {
	body := utils.Sanitize(value)
	if strings.TrimSpace(body) == "" {
		return "", invalid("%s cannot be empty", field)
	}
	return body, nil
}
