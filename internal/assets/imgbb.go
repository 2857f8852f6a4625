package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// DefaultImgBBEndpoint is the public ImgBB upload API.
const DefaultImgBBEndpoint = "https://api.imgbb.com/1/upload"

// ImgBBUploader posts images to ImgBB as multipart "image" fields.
type ImgBBUploader struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewImgBBUploader returns an uploader for the given API key. An empty
// endpoint selects DefaultImgBBEndpoint; a nil client gets a 2 minute timeout.
func NewImgBBUploader(endpoint, key string, client *http.Client) *ImgBBUploader {
	if endpoint == "" {
		endpoint = DefaultImgBBEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &ImgBBUploader{endpoint: endpoint, key: key, client: client}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *ImgBBUploader) Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	name := p.Name
	if name == "" {
		name = "image"
	}
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("imgbb form: %w", err)
	}
	if _, err := part.Write(p.Data); err != nil {
		return "", fmt.Errorf("imgbb form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("imgbb form: %w", err)
	}

	target, err := url.Parse(u.endpoint)
	if err != nil {
		return "", fmt.Errorf("imgbb endpoint: %w", err)
	}
	q := target.Query()
	q.Set("key", u.key)
	target.RawQuery = q.Encode()

	total := int64(body.Len())
	tracker := newProgressTracker(total, progress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), &progressReader{r: &body, t: tracker})
	if err != nil {
		return "", fmt.Errorf("imgbb request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("network connection failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}
	var out imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imgbb response: %w", err)
	}
	if !out.Success {
		msg := out.Error.Message
		if msg == "" {
			msg = "unknown"
		}
		return "", fmt.Errorf("imgbb error: %s", msg)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("imgbb error: response carried no url")
	}
	tracker.finish()
	return out.Data.URL, nil
}
