package imageproc

import (
	"encoding/base64"
	"fmt"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

// Preview builds a data-URL of the original file for display.
func Preview(in model.ImageInput) (model.Preview, error) {
	if len(in.Data) == 0 {
		return model.Preview{}, fmt.Errorf("empty file %q provided to Preview", in.Name)
	}

	return model.Preview{
		Name:    in.Name,
		Size:    in.Size,
		DataURL: "data:" + in.ContentType + ";base64," + base64.StdEncoding.EncodeToString(in.Data),
	}, nil
}
