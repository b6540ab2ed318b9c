package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyLimitedRouter(maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LimitBody(maxUpload))
	r.POST("/form", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.Itoa(len(c.PostForm("payload"))))
	})
	return r
}

func multipartBody(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("username", "bobby"))
	part, err := w.CreateFormFile("avatar", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestLimitBody_SmallFormPasses(t *testing.T) {
	router := bodyLimitedRouter(1024)
	form := url.Values{"payload": {strings.Repeat("x", 100)}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Body.String(), "Поля формы должны остаться доступны обработчику")
}

func TestLimitBody_DeclaredLengthOverLimit(t *testing.T) {
	router := bodyLimitedRouter(1024)
	body, contentType := multipartBody(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/form", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File is too large.", rec.Body.String())
}

func TestLimitBody_UnknownLengthOverLimit(t *testing.T) {
	router := bodyLimitedRouter(1024)

	tests := []struct {
		name  string
		build func(t *testing.T) (*bytes.Buffer, string)
	}{
		{"multipart", func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, 1<<20) }},
		{"urlencoded", func(t *testing.T) (*bytes.Buffer, string) {
			form := url.Values{"payload": {strings.Repeat("x", 1<<20)}}
			return bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := tt.build(t)
			req := httptest.NewRequest(http.MethodPost, "/form", body)
			req.Header.Set("Content-Type", contentType)
			req.ContentLength = -1
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "Тело без Content-Length тоже ограничено")
			assert.Equal(t, "File is too large.", rec.Body.String())
		})
	}
}

func TestLimitBody_DefaultWhenUnset(t *testing.T) {
	router := bodyLimitedRouter(0)
	body, contentType := multipartBody(t, int(DefaultMaxUploadSize+formOverhead))
	req := httptest.NewRequest(http.MethodPost, "/form", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
