package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrDraftNotFound),
		errors.Is(err, model.ErrIndexOutOfRange):
		return 404
	case errors.Is(err, model.ErrUnauthorized):
		return 401
	case errors.Is(err, model.ErrBatchActive):
		return 409
	case errors.Is(err, model.ErrResolutionEmpty):
		return 502
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrEmptyBatch),
		errors.Is(err, model.ErrUnsupportedEvent):
		return 400
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
