package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"slices"
	"strings"
	"time"

	"github.com/flowbaker/filerelay/internal/domain"
	"github.com/flowbaker/filerelay/internal/format"
	"github.com/flowbaker/filerelay/internal/relay"
	"github.com/flowbaker/filerelay/internal/version"
	"github.com/flowbaker/filerelay/internal/views"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	MessageUploadSuccess  = "Files uploaded successfully!"
	MessageNoFiles        = "No files uploaded"
	MessageUploadFailed   = "Failed to upload files. Please try again."
	MessageFileTooLarge   = "File is too large"
	MessageDownloadFailed = "Failed to download file. Please check the file ID or try again."
	MessagePageNotFound   = "Page not found"
	MessageServerError    = "Server error occurred"
)

// FileController serves the upload page and the upload and download endpoints.
type FileController struct {
	uploadService   *relay.UploadService
	downloadService *relay.DownloadService
	publicBaseURL   string
	maxFileSize     int64
}

type FileControllerDependencies struct {
	UploadService   *relay.UploadService
	DownloadService *relay.DownloadService

	// PublicBaseURL overrides the base URL derived from the request when set.
	PublicBaseURL string
	MaxFileSize   int64
}

func NewFileController(deps FileControllerDependencies) *FileController {
	return &FileController{
		uploadService:   deps.UploadService,
		downloadService: deps.DownloadService,
		publicBaseURL:   strings.TrimRight(deps.PublicBaseURL, "/"),
		maxFileSize:     deps.MaxFileSize,
	}
}

// Index renders the upload form. An ?error= query is shown as the message.
func (c *FileController) Index(ctx fiber.Ctx) error {
	return c.RenderPage(ctx, fiber.StatusOK, views.Page{Error: ctx.Query("error")})
}

// Upload relays every file part of a multipart form, whatever its field name.
func (c *FileController) Upload(ctx fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		log.Debug().Err(err).Msg("Upload request carried no multipart form")
		return c.RenderPage(ctx, fiber.StatusBadRequest, views.Page{Error: MessageNoFiles})
	}

	headers := formFiles(form)

	files := make([]domain.RawFile, 0, len(headers))
	for _, header := range headers {
		if c.maxFileSize > 0 && header.Size > c.maxFileSize {
			log.Warn().
				Str("filename", header.Filename).
				Int64("size", header.Size).
				Int64("max_file_size", c.maxFileSize).
				Msg("Rejected oversized file")
			return c.RenderPage(ctx, fiber.StatusRequestEntityTooLarge, views.Page{Error: MessageFileTooLarge})
		}

		file, err := readFormFile(header)
		if err != nil {
			return fmt.Errorf("failed to read uploaded file %q: %w", header.Filename, err)
		}

		files = append(files, file)
	}

	descriptors, err := c.uploadService.Upload(ctx.RequestCtx(), files, c.baseURL(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			return c.RenderPage(ctx, fiber.StatusBadRequest, views.Page{Error: MessageNoFiles})
		}

		log.Error().Err(err).Int("files", len(files)).Msg("Error uploading files")
		return c.RenderPage(ctx, fiber.StatusBadGateway, views.Page{Error: MessageUploadFailed})
	}

	return c.RenderPage(ctx, fiber.StatusOK, views.Page{
		Success: MessageUploadSuccess,
		Files:   descriptors,
	})
}

// Download streams a stored file back to the client.
func (c *FileController) Download(ctx fiber.Ctx) error {
	fileID := ctx.Params("fileId")

	stream, err := c.downloadService.Download(ctx.RequestCtx(), fileID)
	if err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = fiber.StatusNotFound
		}

		log.Error().Err(err).Str("file_id", fileID).Msg("Error downloading file")
		return c.RenderPage(ctx, status, views.Page{Error: MessageDownloadFailed})
	}

	ctx.Set(fiber.HeaderContentType, stream.ContentType)
	ctx.Set(fiber.HeaderContentDisposition, contentDisposition(stream.FileName))
	ctx.Set(fiber.HeaderXContentTypeOptions, "nosniff")

	// The transport closes the body once the response is written or the client goes away.
	if stream.Size >= 0 {
		return ctx.SendStream(stream.Body, int(stream.Size))
	}

	return ctx.SendStream(stream.Body)
}

func (c *FileController) Health(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   "filerelay",
		"version":   version.GetVersion(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound renders the index view for unknown routes.
func (c *FileController) NotFound(ctx fiber.Ctx) error {
	return c.RenderPage(ctx, fiber.StatusNotFound, views.Page{Error: MessagePageNotFound})
}

// RenderPage renders the index view with the base URL and size limit filled in.
func (c *FileController) RenderPage(ctx fiber.Ctx, status int, page views.Page) error {
	page.BaseURL = c.baseURL(ctx)

	if c.maxFileSize > 0 {
		if label, err := format.FormatBytes(c.maxFileSize); err == nil {
			page.MaxFileSize = label
		}
	}

	return ctx.Status(status).Render(views.IndexView, page)
}

func (c *FileController) baseURL(ctx fiber.Ctx) string {
	if c.publicBaseURL != "" {
		return c.publicBaseURL
	}

	return ctx.BaseURL()
}

// formFiles flattens a multipart form into a stable order: fields sorted by
// name, files in submission order within a field.
func formFiles(form *multipart.Form) []*multipart.FileHeader {
	fields := lo.Keys(form.File)
	slices.Sort(fields)

	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}

	return headers
}

func readFormFile(header *multipart.FileHeader) (domain.RawFile, error) {
	file, err := header.Open()
	if err != nil {
		return domain.RawFile{}, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return domain.RawFile{}, err
	}

	return domain.RawFile{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get(fiber.HeaderContentType),
		SizeBytes:    int64(len(content)),
		Content:      content,
	}, nil
}

// contentDisposition builds an attachment header. Names outside printable ASCII
// get an "_" fallback in filename and the exact name in filename* (RFC 6266).
func contentDisposition(fileName string) string {
	var fallback strings.Builder
	exact := true

	for _, r := range fileName {
		switch {
		case r == '"' || r == '\\':
			fallback.WriteByte('\\')
			fallback.WriteRune(r)
		case r < 0x20 || r >= 0x7f:
			fallback.WriteByte('_')
			exact = false
		default:
			fallback.WriteRune(r)
		}
	}

	header := `attachment; filename="` + fallback.String() + `"`
	if !exact {
		header += "; filename*=UTF-8''" + encodeExtValue(fileName)
	}

	return header
}

// encodeExtValue percent-encodes every byte outside the RFC 5987 attr-char set.
func encodeExtValue(value string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}

	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
