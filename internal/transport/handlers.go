// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/service"
	"github.com/wb-go/wbf/ginext"
)

type UploadHandler struct {
	service UploadService
}

type UploadService interface {
	Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error)
	Progress(batchID string) (service.Stage, int, bool)
	ListAttachments(ctx context.Context, draftID string) ([]string, error)
	RemoveAttachment(ctx context.Context, draftID string, index int) error
	ClearAttachments(ctx context.Context, draftID string) error
	History(ctx context.Context, draftID string, req *model.ListRequest) ([]model.UploadEvent, error) // журнал из БД
}

func NewUploadHandler(svc UploadService) *UploadHandler {
	return &UploadHandler{
		service: svc,
	}
}

func (h UploadHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h UploadHandler) Upload(ctx *ginext.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "multipart form is required"})
		return
	}

	headers := form.File["images"]
	files := make([]model.ImageInput, 0, len(headers))
	for _, fh := range headers {
		in, err := readImage(fh)
		if err != nil {
			ctx.JSON(400, map[string]string{"error": "failed to read file " + strconv.Quote(fh.Filename)})
			return
		}
		files = append(files, in)
	}

	// подпись сессии передаем дальше как есть, наличие = авторизован
	cred := ctx.GetHeader("Authorization")

	req := model.UploadRequest{
		BatchID:       ctx.PostForm("batch_id"),
		DraftID:       ctx.PostForm("draft_id"),
		Files:         files,
		Authenticated: cred != "",
		Credential:    model.Credential(cred),
	}
	for _, s := range form.Value["server"] {
		if s != "" {
			req.Endpoints = append(req.Endpoints, model.Endpoint(s))
		}
	}

	res, err := h.service.Upload(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

func (h UploadHandler) Progress(ctx *ginext.Context) {
	batchID := ctx.Param("batch")

	stage, percent, ok := h.service.Progress(batchID)
	res := map[string]any{"batch_id": batchID, "stage": stage, "progress": nil}
	if ok {
		res["progress"] = percent
	}

	ctx.JSON(200, res)
}

func (h UploadHandler) ListAttachments(ctx *ginext.Context) {
	draftID := ctx.Param("draft")

	res, err := h.service.ListAttachments(ctx.Request.Context(), draftID)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]any{"draft_id": draftID, "images": res})
}

func (h UploadHandler) RemoveAttachment(ctx *ginext.Context) {
	if ctx.GetHeader("Authorization") == "" {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectQuery.Error()})
		return
	}

	if err := h.service.RemoveAttachment(ctx.Request.Context(), ctx.Param("draft"), idx); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

func (h UploadHandler) ClearAttachments(ctx *ginext.Context) {
	if ctx.GetHeader("Authorization") == "" {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	if err := h.service.ClearAttachments(ctx.Request.Context(), ctx.Param("draft")); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

func (h UploadHandler) History(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.History(ctx.Request.Context(), ctx.Param("draft"), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

// readImage читает на байт больше лимита - превышение размера поймает валидатор
func readImage(fh *multipart.FileHeader) (model.ImageInput, error) {
	f, err := fh.Open()
	if err != nil {
		return model.ImageInput{}, err
	}
	defer closeFileFlow(f)

	data, err := io.ReadAll(io.LimitReader(f, model.MaxImageSize+1))
	if err != nil {
		return model.ImageInput{}, err
	}

	cType := fh.Header.Get("Content-Type")
	if cType == "" || cType == "application/octet-stream" {
		cType = http.DetectContentType(data)
	}

	return model.ImageInput{
		Name:        fh.Filename,
		ContentType: cType,
		Size:        fh.Size,
		Data:        data,
	}, nil
}
