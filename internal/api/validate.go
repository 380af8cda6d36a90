package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeBody decodes and validates a JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min", "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, "; ")
}

// ─── Request Bodies ─────────────────────────────────────────────────────────

type completionRequest struct {
	Category string `json:"category" validate:"required,max=32"`
}

type activityRequest struct {
	Activity string `json:"activity" validate:"required,max=32"`
}

type socialStatsRequest struct {
	Stat  string `json:"stat" validate:"required,max=32"`
	Value *int   `json:"value" validate:"required,gte=0"`
}

type tourRequest struct {
	Step      int  `json:"step" validate:"gte=0"`
	Completed bool `json:"completed"`
}
