package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req"
	"github.com/tidwall/gjson"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramSink posts blobs as documents to a chat through the Bot API and
// reads them back via getFile. The file_id returned by sendDocument is the
// blob id.
type TelegramSink struct {
	client  *req.Req
	baseURL string
	token   string
	chatID  string
}

// NewTelegramSink create bot API sink. baseURL may point at a self-hosted
// Bot API server, empty means the public one.
func NewTelegramSink(baseURL, token, chatID string, timeout time.Duration) (*TelegramSink, error) {
	if token == "" || chatID == "" {
		return nil, ErrInvalid
	}
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	client := req.New()
	client.SetTimeout(timeout)

	return &TelegramSink{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
	}, nil
}

func (s *TelegramSink) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)
}

// Upload send the blob as a document
func (s *TelegramSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	resp, err := s.client.Post(s.methodURL("sendDocument"),
		req.Param{"chat_id": s.chatID},
		req.FileUpload{
			File:      io.NopCloser(bytes.NewReader(data)),
			FieldName: "document",
			FileName:  objectName(name),
		},
		ctx,
	)
	if err != nil {
		return "", fmt.Errorf("failed to send document: %w", err)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return "", fmt.Errorf("failed to read sendDocument response: %w", err)
	}
	if err := apiError("sendDocument", resp.Response().StatusCode, body); err != nil {
		return "", err
	}

	fileID := gjson.GetBytes(body, "result.document.file_id").String()
	if fileID == "" {
		return "", fmt.Errorf("sendDocument response has no document file_id")
	}
	return fileID, nil
}

// Download resolve the file path and fetch the bytes
func (s *TelegramSink) Download(ctx context.Context, blobID string) ([]byte, error) {
	resp, err := s.client.Get(s.methodURL("getFile"), req.QueryParam{"file_id": blobID}, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	body, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read getFile response: %w", err)
	}
	if err := apiError("getFile", resp.Response().StatusCode, body); err != nil {
		return nil, err
	}

	filePath := gjson.GetBytes(body, "result.file_path").String()
	if filePath == "" {
		return nil, fmt.Errorf("getFile response has no file_path")
	}

	fileResp, err := s.client.Get(fmt.Sprintf("%s/file/bot%s/%s", s.baseURL, s.token, filePath), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	status := fileResp.Response().StatusCode
	if status != http.StatusOK {
		// Drain so the keep-alive connection goes back to the pool
		body := fileResp.Response().Body
		io.Copy(io.Discard, body)
		body.Close()
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status == http.StatusTooManyRequests:
		return nil, &RateLimitError{}
	case status != http.StatusOK:
		return nil, fmt.Errorf("file download returned status %d", status)
	}
	return fileResp.ToBytes()
}

// apiError decode the Bot API error envelope
func apiError(method string, status int, body []byte) error {
	if gjson.GetBytes(body, "ok").Bool() && status == http.StatusOK {
		return nil
	}
	code := gjson.GetBytes(body, "error_code").Int()
	if code == 0 {
		code = int64(status)
	}
	description := gjson.GetBytes(body, "description").String()

	switch code {
	case http.StatusTooManyRequests:
		retryAfter := gjson.GetBytes(body, "parameters.retry_after").Int()
		return &RateLimitError{RetryAfter: time.Duration(retryAfter) * time.Second}
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(description), "file") && strings.Contains(strings.ToLower(description), "invalid") {
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s failed: %d %s", method, code, description)
}
