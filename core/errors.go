package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	WebhookErrorBadInput            = "WEBHOOK_BAD_INPUT"
	WebhookErrorUnauthorized        = "WEBHOOK_SIGNATURE_INVALID"
	WebhookErrorUnconfiguredTenant  = "WEBHOOK_TENANT_NOT_CONFIGURED"
	WebhookErrorProviderNotFound    = "WEBHOOK_PROVIDER_NOT_FOUND"
	WebhookErrorNotFound            = "WEBHOOK_NOT_FOUND"
	WebhookErrorConflict            = "WEBHOOK_CONFLICT"
	WebhookErrorOperationFailed     = "WEBHOOK_OPERATION_FAILED"
	WebhookErrorDeliveryFailed      = "WEBHOOK_DELIVERY_FAILED"
	WebhookErrorInternal            = "WEBHOOK_INTERNAL_ERROR"
)

func webhookErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureWebhookErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, ErrCredentialNotFound):
		return newWebhookError(err.Error(), goerrors.CategoryNotFound, WebhookErrorUnconfiguredTenant)
	case goerrors.Is(err, ErrEventNotFound),
		goerrors.Is(err, ErrEndpointNotFound),
		goerrors.Is(err, ErrDeliveryNotFound):
		return newWebhookError(err.Error(), goerrors.CategoryNotFound, WebhookErrorNotFound)
	case goerrors.Is(err, ErrInvalidEndpointURL),
		goerrors.Is(err, ErrUnknownEventType):
		return newWebhookError(err.Error(), goerrors.CategoryBadInput, WebhookErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"), strings.Contains(msg, "replay window"):
		return newWebhookError(err.Error(), goerrors.CategoryAuth, WebhookErrorUnauthorized)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "not registered"):
		return newWebhookError(err.Error(), goerrors.CategoryNotFound, WebhookErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "malformed"):
		return newWebhookError(err.Error(), goerrors.CategoryBadInput, WebhookErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureWebhookErrorEnvelope(mapped)
}

func newWebhookError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureWebhookErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureWebhookErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = webhookHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultWebhookTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultWebhookTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return WebhookErrorBadInput
	case goerrors.CategoryNotFound:
		return WebhookErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return WebhookErrorUnauthorized
	case goerrors.CategoryConflict:
		return WebhookErrorConflict
	case goerrors.CategoryOperation:
		return WebhookErrorOperationFailed
	default:
		return WebhookErrorInternal
	}
}

func webhookHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
