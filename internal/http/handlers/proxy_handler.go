package handlers

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/koihire-backend/internal/http/response"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

const uploadsCacheControl = "public, max-age=31536000, immutable"

// sniffLen столько байт нужно filetype для определения типа.
const sniffLen = 262

// ProxyConfig адреса внутренних сервисов и лимиты прокси.
type ProxyConfig struct {
	FileStoreURL       string
	ApplicationsAPIURL string
	MaxUploadSize      int64
	Timeout            time.Duration
}

// ProxyHandler проксирует файлы и отклики на проекты во внутренние сервисы.
type ProxyHandler struct {
	cfg    ProxyConfig
	client *http.Client
}

func NewProxyHandler(cfg ProxyConfig) *ProxyHandler {
	return &ProxyHandler{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Uploads GET /uploads/*path
func (h *ProxyHandler) Uploads(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		response.BadRequest(c, "некорректный путь к файлу")
		return
	}

	resp, err := h.forward(c.Request.Context(), h.cfg.FileStoreURL+"/uploads/"+path, nil)
	if err != nil {
		response.Error(c, apperror.Upstream(err, "файловое хранилище недоступно"))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		response.Fail(c, http.StatusNotFound, apperror.ErrCodeNotFound, "файл не найден")
		return
	}
	if resp.StatusCode != http.StatusOK {
		response.Error(c, apperror.Upstream(nil, "файловое хранилище вернуло "+strconv.Itoa(resp.StatusCode)))
		return
	}
	if h.cfg.MaxUploadSize > 0 && resp.ContentLength > h.cfg.MaxUploadSize {
		response.Fail(c, http.StatusRequestEntityTooLarge, apperror.ErrCodeBadRequest, "файл превышает допустимый размер")
		return
	}

	body := bufio.NewReaderSize(resp.Body, sniffLen)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffContentType(body)
	}

	if h.cfg.MaxUploadSize > 0 && resp.ContentLength < 0 {
		h.serveUnsized(c, path, contentType, body)
		return
	}

	c.Header("Cache-Control", uploadsCacheControl)
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, body, nil)
}

// serveUnsized отдаёт файл без объявленной длины. Тело читается до лимита, превышение даёт 413 вместо обрезанного файла.
func (h *ProxyHandler) serveUnsized(c *gin.Context, path, contentType string, body io.Reader) {
	data, err := io.ReadAll(io.LimitReader(body, h.cfg.MaxUploadSize+1))
	if err != nil {
		response.Error(c, apperror.Upstream(err, "файловое хранилище оборвало передачу"))
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadSize {
		logger.Log.WithFields(map[string]interface{}{
			"path":  path,
			"limit": h.cfg.MaxUploadSize,
		}).Warn("proxy: файл без Content-Length превышает допустимый размер")
		response.Fail(c, http.StatusRequestEntityTooLarge, apperror.ErrCodeBadRequest, "файл превышает допустимый размер")
		return
	}

	c.Header("Cache-Control", uploadsCacheControl)
	c.Data(http.StatusOK, contentType, data)
}

// ProjectApplications GET /projects/:id/applications
// Authorization и query передаются как есть, ответ возвращается без изменений.
func (h *ProxyHandler) ProjectApplications(c *gin.Context) {
	target := h.cfg.ApplicationsAPIURL + "/projects/" + c.Param("id") + "/applications"
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	header := http.Header{}
	if auth := c.GetHeader("Authorization"); auth != "" {
		header.Set("Authorization", auth)
	}

	resp, err := h.forward(c.Request.Context(), target, header)
	if err != nil {
		response.Error(c, apperror.Upstream(err, "сервис откликов недоступен"))
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}

func (h *ProxyHandler) forward(ctx context.Context, target string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Log.WithField("target", target).Warn("proxy: таймаут запроса")
		}
		return nil, err
	}
	return resp, nil
}

func sniffContentType(body *bufio.Reader) string {
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "application/octet-stream"
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
