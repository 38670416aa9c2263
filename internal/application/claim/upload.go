package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/boundedcall"
)

// Uploader stores a photo remotely and returns its hosted URL.
type Uploader interface {
	Upload(ctx context.Context, p *domain.Photo) (string, error)
}

var errMissingURL = errors.New("upload response has no url")

// UploadError describes a failed upload. Status and Body are set when the
// storage endpoint answered.
type UploadError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("upload: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// HTTPUploader posts the photo as multipart field "photo" to a storage
// endpoint answering {"url": "..."}. It sets no deadline of its own.
type HTTPUploader struct {
	client boundedcall.Doer
	url    string
}

func NewHTTPUploader(client boundedcall.Doer, url string) *HTTPUploader {
	return &HTTPUploader{client: client, url: url}
}

func (u *HTTPUploader) Upload(ctx context.Context, p *domain.Photo) (string, error) {
	body, contentType, err := multipartBody(p)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, body)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	res := boundedcall.Do(ctx, u.client, req, 0)
	switch res.Kind {
	case boundedcall.OK:
	case boundedcall.HTTPError:
		return "", &UploadError{Status: res.StatusCode, Body: truncate(string(res.Body), 200)}
	default:
		return "", &UploadError{Err: res.Err}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return "", &UploadError{Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", &UploadError{Err: errMissingURL}
	}
	return out.URL, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(p *domain.Photo) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, quoteEscaper.Replace(filename(p))))
	h.Set("Content-Type", p.MediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func filename(p *domain.Photo) string {
	if p.Filename != "" {
		return p.Filename
	}
	if exts, _ := mime.ExtensionsByType(p.MediaType); len(exts) > 0 {
		return "voucher" + exts[0]
	}
	return "voucher"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
