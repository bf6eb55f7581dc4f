package imagecheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newChecker(srv *httptest.Server) *HTTPChecker {
	c := NewHTTPChecker(logrus.New())
	c.client = srv.Client()
	return c
}

func imageHandler(contentType string, size int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(size))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(make([]byte, size))
	}
}

func TestValid_AcceptsRealImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(imageHandler("image/jpeg", 50000))
	defer srv.Close()

	assert.True(t, newChecker(srv).Valid(context.Background(), srv.URL+"/boot.jpg"))
}

func TestValid_RejectsNonHTTPURL(t *testing.T) {
	t.Parallel()

	c := NewHTTPChecker(logrus.New())
	assert.False(t, c.Valid(context.Background(), "ftp://example.com/a.jpg"))
	assert.False(t, c.Valid(context.Background(), ""))
	assert.False(t, c.Valid(context.Background(), "//cdn.example.com/a.jpg"))
}

func TestValid_RejectsHTMLContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(imageHandler("text/html; charset=utf-8", 50000))
	defer srv.Close()

	assert.False(t, newChecker(srv).Valid(context.Background(), srv.URL+"/gone.jpg"))
}

func TestValid_RejectsTinyPlaceholder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(imageHandler("image/png", 120))
	defer srv.Close()

	assert.False(t, newChecker(srv).Valid(context.Background(), srv.URL+"/pixel.png"))
}

func TestValid_RejectsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.False(t, newChecker(srv).Valid(context.Background(), srv.URL+"/missing.jpg"))
}

func TestLooksLikeImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head []byte
		want bool
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, true},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, true},
		{"gif89a", []byte("GIF89a......"), true},
		{"webp", []byte("RIFF....WEBP"), true},
		{"svg", []byte(`<?xml version="1.0"?><svg xmlns=`), true},
		{"html", []byte("<!DOCTYPE html><html>"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, looksLikeImage(tt.head))
		})
	}
}
