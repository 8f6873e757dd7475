package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/config"
)

func TestNewExtractor(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "local", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	require.IsType(t, &PdfToText{}, ext)
	assert.Equal(t, "/usr/bin/pdftotext", ext.(*PdfToText).binPath)

	ext, err = NewExtractor(config.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)

	ext, err = NewExtractor(config.OCRConfig{Provider: "mistral", MistralKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, ext)

	ext, err = NewExtractor(config.OCRConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, ext)
}

func TestNewExtractor_Errors(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires ocr.mistral_key")

	_, err = NewExtractor(config.OCRConfig{Provider: "tesseract"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "tesseract"`)
}

func TestPdfToText_Args(t *testing.T) {
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-l", "60", "-", "-"}, NewPdfToText("", DefaultMaxPages).args())
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-", "-"}, NewPdfToText("", 0).args())
	assert.Equal(t, "pdftotext", NewPdfToText("", 0).binPath)
}

// fakeBinary writes a shell script standing in for pdftotext.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a unix shell")
	}
	path := filepath.Join(t.TempDir(), "pdftotext")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestPdfToText_ExtractText(t *testing.T) {
	bin := fakeBinary(t, `cat >/dev/null; echo "Thacker Pass Pre-Feasibility Study"`)

	text, err := NewPdfToText(bin, 10).ExtractText(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "Thacker Pass Pre-Feasibility Study\n", text)
}

func TestPdfToText_Failure(t *testing.T) {
	bin := fakeBinary(t, `echo "Syntax Error: Couldn't find trailer dictionary" >&2; exit 1`)

	_, err := NewPdfToText(bin, 10).ExtractText(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailer dictionary")
}

func TestMistralOCR_ExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req mistralRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultMistralModel, req.Model)
		assert.Equal(t, "document_url", req.Document.Type)
		assert.Equal(t, "data:application/pdf;base64,"+base64.StdEncoding.EncodeToString([]byte("%PDF")), req.Document.DocumentURL)
		assert.Len(t, req.Pages, DefaultMaxPages)

		w.Write([]byte(`{"pages":[{"index":0,"markdown":"# NI 43-101 Technical Report"},{"index":1,"markdown":"NPV US$5.7 billion"}]}`))
	}))
	defer srv.Close()

	m := NewMistralOCR("test-key")
	m.endpoint = srv.URL

	text, err := m.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "# NI 43-101 Technical Report\n\nNPV US$5.7 billion", text)
}

func TestMistralOCR_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Authorization"), "bad") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	m := NewMistralOCR("bad")
	m.endpoint = srv.URL
	_, err := m.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral returned 401")

	m = NewMistralOCR("good")
	m.endpoint = srv.URL
	_, err = m.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode mistral response")
}
