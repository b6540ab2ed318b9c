package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/quiz-master/internal/config"
	"github.com/yourusername/quiz-master/internal/logger"
)

var (
	// ErrFileTooLarge файл превышает MAX_UPLOAD_SIZE
	ErrFileTooLarge = errors.New("file is too large")
	// ErrExtensionNotAllowed расширение не входит в ALLOWED_EXTENSIONS
	ErrExtensionNotAllowed = errors.New("file extension is not allowed")
	// ErrInvalidFilename имя файла содержит путь или пусто
	ErrInvalidFilename = errors.New("invalid file name")
)

// AvatarStore хранит загруженные аватары в каталоге на диске.
// Имена файлов генерируются (uuid + расширение), поэтому коллизии исключены.
type AvatarStore struct {
	dir     string
	maxSize int64
	allowed map[string]struct{}
	log     *logger.Logger
}

// NewAvatarStore создает хранилище и каталог загрузок, если его нет
func NewAvatarStore(cfg config.UploadConfig, log *logger.Logger) (*AvatarStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", cfg.Dir, err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &AvatarStore{
		dir:     cfg.Dir,
		maxSize: cfg.MaxSize,
		allowed: allowed,
		log:     log.Component("AvatarStore"),
	}, nil
}

// Dir возвращает каталог загрузок
func (s *AvatarStore) Dir() string {
	return s.dir
}

// Allowed проверяет расширение исходного имени файла
func (s *AvatarStore) Allowed(filename string) bool {
	_, ok := s.allowed[extension(filename)]
	return ok
}

// Save проверяет размер и расширение и записывает файл под новым уникальным именем.
// Возвращает имя сохраненного файла (без каталога).
func (s *AvatarStore) Save(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", ErrInvalidFilename
	}
	ext := extension(file.Filename)
	if _, ok := s.allowed[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, file.Size, s.maxSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	var reader io.Reader = src
	if s.maxSize > 0 {
		// Заголовок Size мог соврать, ограничиваем реальное чтение
		reader = io.LimitReader(src, s.maxSize+1)
	}
	written, copyErr := io.Copy(dst, reader)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		s.remove(path)
		return "", fmt.Errorf("failed to write %s: %w", name, copyErr)
	case closeErr != nil:
		s.remove(path)
		return "", fmt.Errorf("failed to close %s: %w", name, closeErr)
	case s.maxSize > 0 && written > s.maxSize:
		s.remove(path)
		return "", fmt.Errorf("%w: limit %d", ErrFileTooLarge, s.maxSize)
	}

	s.log.Debug("Avatar saved", "file", name, "bytes", written)
	return name, nil
}

// Delete удаляет файл. Ошибки файловой системы логируются и не возвращаются.
// Возвращает true, если файл был удален.
func (s *AvatarStore) Delete(name string) bool {
	if name == "" {
		return false
	}
	path, err := s.Path(name)
	if err != nil {
		s.log.Warn("Refusing to delete file", "file", name, "error", err)
		return false
	}
	return s.remove(path)
}

// Path возвращает путь к файлу внутри каталога загрузок, отклоняя попытки выйти за его пределы
func (s *AvatarStore) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, name), nil
}

func (s *AvatarStore) remove(path string) bool {
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error("File deletion failed", "path", path, "error", err)
		}
		return false
	}
	return true
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
