package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
)

// maxChatBodyBytes caps the relay request body.
const maxChatBodyBytes = 64 << 10

// chatRelay is the part of services.RelayService the handler needs.
type chatRelay interface {
	Reply(ctx context.Context, prompt string, lang models.Language) (string, error)
}

type ChatHandler struct {
	relay  chatRelay
	logger *slog.Logger
}

func NewChatHandler(relay chatRelay, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{relay: relay, logger: logger}
}

// Relay answers POST /api/chat with one archive reply.
func (h *ChatHandler) Relay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, domain.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, decodeError(err))
		return
	}

	lang, err := validateChatRequest(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	reply, err := h.relay.Reply(r.Context(), req.Prompt, lang)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

// writeError answers with the status domain.StatusOf assigns to err.
func (h *ChatHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.StatusOf(err)

	var upErr *domain.UpstreamError
	switch {
	case errors.As(err, &upErr):
		writeJSON(w, status, errorRespWithDetails("UPSTREAM_ERROR", "Failed to get response from Gemini", upErr.Summary(), r))
	case errors.Is(err, domain.ErrServerMisconfigured):
		writeJSON(w, status, errorResp("SERVER_MISCONFIGURED", "API key not configured", r))
	case errors.Is(err, domain.ErrMethodNotAllowed):
		writeJSON(w, status, errorResp("METHOD_NOT_ALLOWED", "Method not allowed", r))
	case errors.Is(err, domain.ErrPayloadTooLarge):
		writeJSON(w, status, errorResp("PAYLOAD_TOO_LARGE", "Request body too large", r))
	case errors.Is(err, domain.ErrBadRequest):
		writeJSON(w, status, errorResp("VALIDATION_ERROR", err.Error(), r))
	default:
		h.logger.Error("chat relay failed", "error", err)
		writeJSON(w, status, errorResp("INTERNAL_ERROR", "Internal server error", r))
	}
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("chat body over %d bytes: %w", tooLarge.Limit, domain.ErrPayloadTooLarge)
	}
	return &domain.ValidationError{Message: "Invalid request body"}
}

var (
	errPromptRequired      = validation.NewError("validation_prompt_required", "Prompt is required")
	errUnsupportedLanguage = validation.NewError("validation_lang_unsupported", "Unsupported language, expected fr or en")
)

// validateChatRequest checks the prompt before the language and resolves
// the language, defaulting to French. Failures are *domain.ValidationError.
func validateChatRequest(req *models.ChatRequest) (models.Language, error) {
	var lang models.Language

	err := validation.ValidateStruct(req,
		validation.Field(&req.Prompt,
			validation.Required.ErrorObject(errPromptRequired),
			validation.By(notBlank(errPromptRequired)),
		),
	)
	if err != nil {
		return "", &domain.ValidationError{Message: firstValidationError(err).Error()}
	}

	err = validation.Validate(string(req.Lang), validation.By(func(value interface{}) error {
		parsed, perr := models.ParseLanguage(value.(string))
		if perr != nil {
			return errUnsupportedLanguage
		}
		lang = parsed
		return nil
	}))
	if err != nil {
		return "", &domain.ValidationError{Message: err.Error()}
	}

	return lang, nil
}

func notBlank(blankErr validation.Error) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return blankErr
		}
		return nil
	}
}

func firstValidationError(err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, fieldErr := range errs {
			if fieldErr != nil {
				return fieldErr
			}
		}
	}
	return err
}
