package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
)

func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	browserPath, err := getBrowser()
	if err != nil {
		t.Skip("No Chrome/Chromium browser found, skipping render test")
	}
	browser := NewBrowser(browserPath, 15*time.Second, 300*time.Millisecond)
	t.Cleanup(browser.Shutdown)
	return browser
}

func TestRenderPDFDimensions(t *testing.T) {
	browser := newTestBrowser(t)

	data, err := browser.RenderPDF(context.Background(), "<html><body><h1>Test</h1></body></html>", 210, 297, false)
	if err != nil {
		t.Fatalf("Failed to render PDF: %v", err)
	}
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("Expected a non-empty PDF body")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Rendered PDF is not parseable: %v", err)
	}
	if reader.NumPage() != 1 {
		t.Errorf("Expected 1 page, got %d", reader.NumPage())
	}

	// A4 in points: 210mm = 595.3pt, 297mm = 841.9pt
	mediaBox := reader.Page(1).V.Key("MediaBox")
	if mediaBox.Kind() == pdf.Array && mediaBox.Len() == 4 {
		width := mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		height := mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
		if math.Abs(width-595.3) > 2 || math.Abs(height-841.9) > 2 {
			t.Errorf("Expected A4 page (595x842pt), got %.1fx%.1fpt", width, height)
		}
	}
}

func TestRenderPDFRejectsZeroSize(t *testing.T) {
	browser := NewBrowser("/usr/bin/true", 15*time.Second, 300*time.Millisecond)
	if _, err := browser.RenderPDF(context.Background(), "<html></html>", 0, 297, false); err == nil {
		t.Error("Expected error for zero width")
	}
	if _, err := browser.RenderPDF(context.Background(), "<html></html>", 210, 0.05, false); err == nil {
		t.Error("Expected error for sub-pixel height")
	}
	if _, err := browser.RenderImage(context.Background(), "<html></html>", 0, 1080, 90, "png"); err == nil {
		t.Error("Expected error for zero viewport width")
	}
}

func TestRenderImageDimensions(t *testing.T) {
	browser := newTestBrowser(t)

	for _, format := range []string{"png", "jpeg"} {
		data, err := browser.RenderImage(context.Background(), "<html><body style='background:#004aad'></body></html>", 1080, 1080, 90, format)
		if err != nil {
			t.Fatalf("Failed to render %s: %v", format, err)
		}
		cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Rendered %s is not decodable: %v", format, err)
		}
		if kind != format {
			t.Errorf("Expected a %s, got %s", format, kind)
		}
		if cfg.Width != 1080 || cfg.Height != 1080 {
			t.Errorf("Expected 1080x1080 viewport capture, got %dx%d", cfg.Width, cfg.Height)
		}
	}
}

func TestRenderTimeout(t *testing.T) {
	browser := newTestBrowser(t)
	browser.loadTimeout = 2 * time.Second

	// a subresource that never responds keeps the load event from firing
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hung.Close()

	html := fmt.Sprintf("<html><body><img src=%q></body></html>", hung.URL+"/never.png")

	start := time.Now()
	_, err := browser.RenderPDF(context.Background(), html, 210, 297, false)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("Expected ErrRenderTimeout, got: %v", err)
	}
	if elapsed > 10*time.Second {
		t.Errorf("Render should fail within the timeout budget, took %s", elapsed)
	}

	// the browser survives a timed-out render
	if _, err := browser.RenderPDF(context.Background(), "<html><body>ok</body></html>", 210, 297, false); err != nil {
		t.Errorf("Render after timeout failed: %v", err)
	}
}

func TestRenderCallerCancellation(t *testing.T) {
	browser := newTestBrowser(t)

	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hung.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()

	html := fmt.Sprintf("<html><body><img src=%q></body></html>", hung.URL+"/never.png")
	_, err := browser.RenderPDF(ctx, html, 210, 297, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from a client disconnect, got: %v", err)
	}
}

func TestConcurrentRenders(t *testing.T) {
	browser := newTestBrowser(t)

	const workers = 10
	results := make([][]byte, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			html := fmt.Sprintf("<html><body><h1>Document number %d</h1><p>%s</p></body></html>", n, time.Now())
			results[n], errs[n] = browser.RenderPDF(context.Background(), html, 210, 297, false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Concurrent render %d failed: %v", i, errs[i])
		}
		if len(results[i]) == 0 {
			t.Fatalf("Concurrent render %d returned empty bytes", i)
		}
	}

	// no content bleed: every artifact is byte-distinct
	for i := 0; i < workers; i++ {
		for j := i + 1; j < workers; j++ {
			if bytes.Equal(results[i], results[j]) {
				t.Errorf("Renders %d and %d produced identical bytes", i, j)
			}
		}
	}
}
