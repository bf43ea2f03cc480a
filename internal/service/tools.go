package service

import (
	"strconv"
	"strings"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

// validateBatch отбивает весь батч целиком, если хоть один файл нарушает политику
func validateBatch(policy model.ValidationPolicy, files []model.ImageInput) error {
	if len(files) == 0 {
		return model.ErrEmptyBatch
	}

	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") || !policy.AllowedTypes[f.ContentType] {
			return &model.ValidationError{
				Constraint: model.ConstraintType,
				File:       f.Name,
				Value:      f.ContentType,
				Limit:      policy.MaxSize,
			}
		}

		size := f.Size
		if n := int64(len(f.Data)); n > size {
			size = n
		}
		if size > policy.MaxSize {
			return &model.ValidationError{
				Constraint: model.ConstraintSize,
				File:       f.Name,
				Value:      strconv.FormatInt(size, 10),
				Limit:      policy.MaxSize,
			}
		}
	}
	return nil
}

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByKind):
		req.Sort = "kind"
	default:
		req.Sort = "created_at" // по дефолту сортируем по времени события
	}

	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC"
	}
}

func endpointsFor(req *model.UploadRequest, configured []model.Endpoint) []model.Endpoint {
	if len(req.Endpoints) > 0 {
		return req.Endpoints
	}
	if len(configured) > 0 {
		return configured
	}
	return []model.Endpoint{model.DefaultEndpoint}
}
