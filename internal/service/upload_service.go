package service

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/models"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
)

var spreadsheetMIMEs = map[string]struct{}{
	"text/csv":                 {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

var errFileTooLarge = errors.New("file exceeds size limit")

type uploadFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// UploadedFile is one multipart part handed over by the API layer.
type UploadedFile struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// UploadServiceConfig bounds what uploads are accepted.
type UploadServiceConfig struct {
	PublicPrefix  string
	MaxImageBytes int64
	MaxSheetBytes int64
	MaxImages     int
}

// UploadService validates multipart files and stores images on disk.
type UploadService struct {
	storage uploadFileStorage
	logger  *zap.Logger
	cfg     UploadServiceConfig
	now     func() time.Time
}

// NewUploadService constructs the service with defaults.
func NewUploadService(storage uploadFileStorage, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = "/uploads"
	}
	cfg.PublicPrefix = strings.TrimRight(cfg.PublicPrefix, "/")
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 5 * 1024 * 1024
	}
	if cfg.MaxSheetBytes <= 0 {
		cfg.MaxSheetBytes = 10 * 1024 * 1024
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = models.FeedbackMaxImages
	}
	return &UploadService{storage: storage, logger: logger, cfg: cfg, now: time.Now}
}

// SaveImages stores every file and returns their public paths in order. On
// failure nothing written by this call is left behind.
func (s *UploadService) SaveImages(files []UploadedFile) ([]string, error) {
	if len(files) > s.cfg.MaxImages {
		return nil, invalid(fmt.Sprintf("max %d images allowed", s.cfg.MaxImages))
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		p, err := s.saveImage(file)
		if err != nil {
			s.Discard(paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *UploadService) saveImage(file UploadedFile) (string, error) {
	if file.Content == nil {
		return "", invalid("image content missing")
	}
	if file.Size > s.cfg.MaxImageBytes {
		return "", tooLarge(file.Filename, s.cfg.MaxImageBytes)
	}
	declared := strings.ToLower(strings.TrimSpace(file.ContentType))
	if declared != "" && declared != "application/octet-stream" && !strings.HasPrefix(declared, "image/") {
		return "", invalid("only images are allowed")
	}
	reader := bufio.NewReader(file.Content)
	head, _ := reader.Peek(512)
	ext := imageExtension(http.DetectContentType(head))
	if ext == "" {
		return "", invalid("only images are allowed")
	}

	name := s.generateFilename(ext)
	limited := &limitReader{r: reader, remaining: s.cfg.MaxImageBytes}
	stored, err := s.storage.SaveStream(name, limited)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return "", tooLarge(file.Filename, s.cfg.MaxImageBytes)
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	return s.cfg.PublicPrefix + "/" + stored, nil
}

// ReadSpreadsheet checks the declared type and size of a bulk import file and
// reads it into memory. Spreadsheets are never persisted.
func (s *UploadService) ReadSpreadsheet(file UploadedFile) ([]byte, error) {
	if file.Content == nil {
		return nil, invalid("No file uploaded")
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if _, ok := spreadsheetMIMEs[mimeType]; !ok {
		return nil, invalid("only CSV or Excel files are allowed")
	}
	if file.Size > s.cfg.MaxSheetBytes {
		return nil, tooLarge(file.Filename, s.cfg.MaxSheetBytes)
	}
	data, err := io.ReadAll(&limitReader{r: file.Content, remaining: s.cfg.MaxSheetBytes})
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return nil, tooLarge(file.Filename, s.cfg.MaxSheetBytes)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read spreadsheet")
	}
	return data, nil
}

// Discard removes stored images by public path. Failures are only logged.
func (s *UploadService) Discard(paths []string) {
	for _, p := range paths {
		name := strings.TrimPrefix(p, s.cfg.PublicPrefix+"/")
		if name == p {
			name = path.Base(p)
		}
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to remove stored image", zap.String("path", p), zap.Error(err))
		}
	}
}

// generateFilename yields <unix millis>-<random below 1e9><ext>.
func (s *UploadService) generateFilename(ext string) string {
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), randomBelow(1e9), ext)
}

// imageExtension maps a sniffed type to the extension files are stored
// under. Anything else, SVG included, is not served as an image.
func imageExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/x-icon":
		return ".ico"
	default:
		return ""
	}
}

func randomBelow(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return time.Now().UnixNano() % n
	}
	return v.Int64()
}

func tooLarge(filename string, limit int64) error {
	size := fmt.Sprintf("%d bytes", limit)
	if limit >= 1024*1024 {
		size = fmt.Sprintf("%d MB", limit/(1024*1024))
	}
	return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds the %s limit", filename, size))
}

type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errFileTooLarge
	}
	return n, err
}
