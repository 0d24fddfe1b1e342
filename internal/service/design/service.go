// Package design accepts custom jewelry design requests with an optional
// sketch upload.
package design

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/service/newsletter"
)

// MaxSketchBytes caps an uploaded sketch.
const MaxSketchBytes = 10 << 20

// ValidationError describes rejected input. It is not a submission failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type repo interface {
	Create(ctx context.Context, d domain.DesignSubmission) (*domain.DesignSubmission, error)
	ListRecent(ctx context.Context, limit int) ([]domain.DesignSubmission, error)
}

type uploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error)
}

// Input is the submitted form.
type Input struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	PieceType   string `json:"pieceType" form:"pieceType"`
	Metal       string `json:"metal" form:"metal"`
	Gemstone    string `json:"gemstone" form:"gemstone"`
	RingSize    string `json:"ringSize" form:"ringSize"`
	Budget      string `json:"budget" form:"budget"`
	Description string `json:"description" form:"description"`
}

// Sketch is an optional attached file.
type Sketch struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	repo     repo
	uploader uploader
	bucket   string
	logger   *zap.Logger
}

func New(r repo, u uploader, bucket string, logger *zap.Logger) *Service {
	return &Service{repo: r, uploader: u, bucket: bucket, logger: logging.OrNop(logger).Named("design")}
}

// Submit validates in, uploads the sketch if present and stores the request.
// Upload and storage failures come back as domain.ErrSubmissionFailed.
func (s *Service) Submit(ctx context.Context, in Input, sketch *Sketch) (*domain.DesignSubmission, error) {
	sub, err := validate(in)
	if err != nil {
		return nil, err
	}

	if sketch != nil {
		body, contentType, ext, err := readSketch(sketch)
		if err != nil {
			return nil, err
		}
		if s.uploader == nil {
			return nil, fmt.Errorf("%w: sketch uploads are not configured", domain.ErrSubmissionFailed)
		}
		object := uuid.NewString() + ext
		url, err := s.uploader.Upload(ctx, s.bucket, object, contentType, bytes.NewReader(body))
		if err != nil {
			s.logger.Warn("sketch upload failed", zap.String("object", object), zap.Error(err))
			return nil, fmt.Errorf("%w: upload sketch: %v", domain.ErrSubmissionFailed, err)
		}
		sub.SketchURL = url
	}

	if s.repo == nil {
		return nil, fmt.Errorf("%w: storage unavailable", domain.ErrSubmissionFailed)
	}
	out, err := s.repo.Create(ctx, sub)
	if err != nil {
		s.logger.Warn("design insert failed", zap.Error(err))
		return nil, fmt.Errorf("%w: store submission: %v", domain.ErrSubmissionFailed, err)
	}
	s.logger.Info("design submitted", zap.String("id", out.ID), zap.Bool("sketch", out.SketchURL != ""))
	return out, nil
}

// List returns the most recent submissions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.DesignSubmission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if s.repo == nil {
		return nil, errors.New("storage unavailable")
	}
	return s.repo.ListRecent(ctx, limit)
}

func validate(in Input) (domain.DesignSubmission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.DesignSubmission{}, &ValidationError{Field: "name", Reason: "required"}
	}
	email, err := newsletter.NormalizeEmail(in.Email)
	if err != nil {
		return domain.DesignSubmission{}, &ValidationError{Field: "email", Reason: "invalid"}
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return domain.DesignSubmission{}, &ValidationError{Field: "description", Reason: "required"}
	}
	return domain.DesignSubmission{
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(in.Phone),
		PieceType:   strings.TrimSpace(in.PieceType),
		Metal:       strings.TrimSpace(in.Metal),
		Gemstone:    strings.TrimSpace(in.Gemstone),
		RingSize:    strings.TrimSpace(in.RingSize),
		Budget:      strings.TrimSpace(in.Budget),
		Description: desc,
	}, nil
}

// readSketch buffers the file, enforces the size cap and sniffs the type.
func readSketch(sk *Sketch) ([]byte, string, string, error) {
	if sk.Size > MaxSketchBytes {
		return nil, "", "", &ValidationError{Field: "sketch", Reason: "larger than 10 MiB"}
	}
	body, err := io.ReadAll(io.LimitReader(sk.Body, MaxSketchBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: read sketch: %v", domain.ErrSubmissionFailed, err)
	}
	if len(body) > MaxSketchBytes {
		return nil, "", "", &ValidationError{Field: "sketch", Reason: "larger than 10 MiB"}
	}
	if len(body) == 0 {
		return nil, "", "", &ValidationError{Field: "sketch", Reason: "empty file"}
	}

	contentType := http.DetectContentType(body)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !allowedType(contentType) {
		return nil, "", "", &ValidationError{Field: "sketch", Reason: "must be an image or PDF"}
	}

	ext := strings.ToLower(path.Ext(sk.Filename))
	if ext == "" || len(ext) > 6 {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ""
		}
	}
	return body, contentType, ext, nil
}

func allowedType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}
