package profile

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/turo-backend/internal/domain"
	"github.com/turo-backend/internal/pkg/datefield"
	"golang.org/x/sync/errgroup"
)

const (
	contentTypeJPEG   = "image/jpeg"
	contentTypeBinary = "application/octet-stream"

	uploadConcurrency = 4
)

// CertificateInput is one credential or achievement entry as sent by the client.
// Title and year may arrive as strings or numbers.
type CertificateInput struct {
	Title               interface{} `json:"title"`
	Year                interface{} `json:"year"`
	CertificateBase64   string      `json:"certificateBase64"`
	CertificateFileName string      `json:"certificateFileName"`
}

// SaveRequest is the profile payload. User and UserDetail are schemaless.
type SaveRequest struct {
	User               map[string]interface{} `json:"user"`
	UserDetail         map[string]interface{} `json:"userDetail"`
	SelfieBase64       string                 `json:"selfieBase64"`
	SelfieFileName     string                 `json:"selfieFileName"`
	IDBase64           string                 `json:"idBase64"`
	IDFileName         string                 `json:"idFileName"`
	IDType             string                 `json:"idType"`
	InstitutionalEmail string                 `json:"institutionalEmail"`
	Credentials        []CertificateInput     `json:"credentials"`
	Achievements       []CertificateInput     `json:"achievements"`
}

type Service interface {
	// Save writes the caller's public, private and verification documents.
	Save(ctx context.Context, callerID string, req SaveRequest) error
}

type profileStore interface {
	Save(ctx context.Context, w *domain.ProfileWrite) error
}

type blobStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

type service struct {
	profiles profileStore
	blobs    blobStore
	now      func() time.Time
}

type ServiceDeps struct {
	ProfileRepo profileStore
	BlobStore   blobStore
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{profiles: deps.ProfileRepo, blobs: deps.BlobStore, now: now}
}

func (s *service) Save(ctx context.Context, callerID string, req SaveRequest) error {
	if callerID == "" {
		return fmt.Errorf("the function must be called while authenticated: %w", domain.ErrUnauthorized)
	}

	public := domain.Document{}
	for k, v := range req.User {
		public[k] = v
	}
	private := domain.Document{}
	for k, v := range req.UserDetail {
		private[k] = v
	}
	datefield.Normalize(map[string]interface{}(public))
	datefield.Normalize(map[string]interface{}(private))

	var (
		selfieURL, idFileURL *string
		credentials          = make([]domain.Certificate, len(req.Credentials))
		achievements         = make([]domain.Certificate, len(req.Achievements))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	upload := func(dst **string, kind, data, name, contentType string) {
		if data == "" || name == "" {
			return
		}
		g.Go(func() error {
			*dst = s.upload(gctx, callerID, kind, data, name, contentType)
			return nil
		})
	}
	upload(&selfieURL, "selfie", req.SelfieBase64, req.SelfieFileName, contentTypeJPEG)
	upload(&idFileURL, "id_verification", req.IDBase64, req.IDFileName, contentTypeBinary)
	for i, in := range req.Credentials {
		credentials[i] = domain.Certificate{Title: optionalString(in.Title), Year: optionalString(in.Year)}
		upload(&credentials[i].CertificateURL, "credentials", in.CertificateBase64, in.CertificateFileName, contentTypeBinary)
	}
	for i, in := range req.Achievements {
		achievements[i] = domain.Certificate{Title: optionalString(in.Title), Year: optionalString(in.Year)}
		upload(&achievements[i].CertificateURL, "achievements", in.CertificateBase64, in.CertificateFileName, contentTypeBinary)
	}
	_ = g.Wait()

	if selfieURL != nil {
		public[domain.FieldProfilePictureURL] = *selfieURL
	}

	now := s.now().UTC()
	public[domain.FieldUpdatedAt] = now
	private[domain.FieldUpdatedAt] = now
	delete(public, domain.FieldUserID)
	delete(private, domain.FieldUserID)

	w := &domain.ProfileWrite{
		UserID:  callerID,
		Public:  public,
		Private: private,
		Verification: domain.MentorVerification{
			UserID:             callerID,
			IDType:             optionalString(req.IDType),
			IDFileName:         optionalString(req.IDFileName),
			IDFileURL:          idFileURL,
			SelfieURL:          selfieURL,
			VerificationStatus: domain.VerificationStatusPending,
			InstitutionalEmail: optionalString(req.InstitutionalEmail),
			Credentials:        credentials,
			Achievements:       achievements,
			UpdatedAt:          now,
		},
	}
	if err := s.profiles.Save(ctx, w); err != nil {
		slog.Error("save profile failed", "user_id", callerID, "err", err)
		return fmt.Errorf("an error occurred while saving the profile: %w", err)
	}
	slog.Info("profile saved", "user_id", callerID)
	return nil
}

// upload stores one base64 attachment under users/{id}/{kind}/{name}. Failures
// are logged and reported as a nil URL.
func (s *service) upload(ctx context.Context, userID, kind, data, name, contentType string) *string {
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		slog.Warn("attachment skipped: bad file name", "user_id", userID, "kind", kind)
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		slog.Warn("attachment skipped: invalid base64", "user_id", userID, "kind", kind, "err", err)
		return nil
	}
	key := fmt.Sprintf("users/%s/%s/%s", userID, kind, name)
	url, err := s.blobs.Upload(ctx, key, bytes.NewReader(raw), contentType)
	if err != nil {
		slog.Error("attachment upload failed", "user_id", userID, "key", key, "err", err)
		return nil
	}
	return &url
}

// optionalString maps empty or absent client values to nil and renders
// numbers without a trailing fraction, so a year of 2020 becomes "2020".
func optionalString(v interface{}) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		if t == 0 {
			return nil
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return nil
		}
		s = "true"
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
