// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type PushupHandler struct {
	service PushupService
}

type PushupService interface {
	Process(ctx context.Context, raw *model.ProcessRequest) (*model.BatchResult, error)
}

func NewPushupHandler(svc PushupService) *PushupHandler {
	return &PushupHandler{
		service: svc,
	}
}

func (h PushupHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// Pushup - one batch per request: multipart "images" files plus form fields
// Processing-Mode, Export-Type, Key-Prefix. Responds with a zip attachment
// in local mode and a JSON report in remote mode.
func (h PushupHandler) Pushup(ctx *ginext.Context) {
	if err := ctx.Request.ParseMultipartForm(64 << 20); err != nil {
		ctx.JSON(400, map[string]string{"error": "invalid multipart form"})
		return
	}

	fileHeaders := ctx.Request.MultipartForm.File["images"]
	if len(fileHeaders) == 0 {
		ctx.JSON(400, map[string]string{"error": "images not found in the request"})
		return
	}

	files, err := readUploads(fileHeaders)
	if err != nil {
		ctx.JSON(400, map[string]string{"error": err.Error()})
		return
	}

	keyPrefix := ctx.PostForm("Key-Prefix")
	if keyPrefix == "" {
		// older clients still send the field under its original name
		keyPrefix = ctx.PostForm("S3_Prefix")
	}

	raw := model.ProcessRequest{
		Files:      files,
		Mode:       ctx.PostForm("Processing-Mode"),
		ExportType: ctx.PostForm("Export-Type"),
		KeyPrefix:  keyPrefix,
	}

	res, err := h.service.Process(ctx.Request.Context(), &raw)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	if res.Archive != nil {
		ctx.Header("Content-Disposition", `attachment; filename="all_images_processed.zip"`)
		ctx.Data(200, model.ZIP, res.Archive)
		return
	}

	ctx.JSON(200, res.Report)
}

func readUploads(headers []*multipart.FileHeader) ([]model.UploadedFile, error) {
	files := make([]model.UploadedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(f)
		closeFileFlow(f)
		if err != nil {
			return nil, err
		}

		files = append(files, model.UploadedFile{Filename: header.Filename, Data: data})
	}
	return files, nil
}
