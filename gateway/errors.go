package gateway

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/RustMunkey/quickdash-sub005/core"
)

func gatewayError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func gatewayWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return gatewayError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func gatewayBadInput(message string, metadata map[string]any) error {
	return gatewayError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.WebhookErrorBadInput,
		metadata,
	)
}

func gatewayInternal(message string, metadata map[string]any) error {
	return gatewayError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.WebhookErrorInternal,
		metadata,
	)
}
