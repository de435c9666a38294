package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// inchesPerMm converts page dimensions for the devtools print call,
// which takes paper size in inches
const inchesPerMm = 1.0 / 25.4

// RenderPDF loads the HTML in a fresh tab and prints it to a PDF sized
// exactly widthMm x heightMm with zero margins, backgrounds on and the
// document's own CSS page size honoured. No viewport is set; PDF layout
// is driven entirely by the paper size.
func (b *Browser) RenderPDF(ctx context.Context, html string, widthMm, heightMm float64, landscape bool) ([]byte, error) {
	if widthMm <= 0 || heightMm <= 0 || MmToPixels(widthMm) < 1 || MmToPixels(heightMm) < 1 {
		return nil, fmt.Errorf("invalid page size %.2fx%.2fmm", widthMm, heightMm)
	}

	var pdf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		buf, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			WithLandscape(landscape).
			WithPaperWidth(widthMm * inchesPerMm).
			WithPaperHeight(heightMm * inchesPerMm).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			Do(ctx)
		if err != nil {
			return err
		}
		pdf = buf
		return nil
	})

	if err := b.renderPage(ctx, html, nil, capture); err != nil {
		return nil, err
	}
	return pdf, nil
}

// RenderImage loads the HTML in a fresh tab with a viewport fixed at the
// requested pixel size and captures a screenshot of exactly that
// viewport, never the full scrollable page.
func (b *Browser) RenderImage(ctx context.Context, html string, widthPx, heightPx, quality int, format string) ([]byte, error) {
	if widthPx < 1 || heightPx < 1 {
		return nil, fmt.Errorf("invalid viewport size %dx%dpx", widthPx, heightPx)
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var image []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		shot := page.CaptureScreenshot()
		if format == "jpeg" || format == "jpg" {
			shot = shot.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(quality))
		} else {
			shot = shot.WithFormat(page.CaptureScreenshotFormatPng)
		}
		buf, err := shot.Do(ctx)
		if err != nil {
			return err
		}
		image = buf
		return nil
	})

	viewport := chromedp.EmulateViewport(int64(widthPx), int64(heightPx))
	if err := b.renderPage(ctx, html, viewport, capture); err != nil {
		return nil, err
	}
	return image, nil
}

// renderPage is the shared load protocol: borrow a tab, navigate to the
// content, wait for the load plus the settle delay, run the capture
// action. The settle delay gives fonts and async CSS a chance to finish
// painting; it is a heuristic, not a guarantee. The lease is released on
// every exit path and the caller's context cancels the tab so a client
// disconnect aborts an in-flight render.
func (b *Browser) renderPage(ctx context.Context, html string, viewport chromedp.Action, capture chromedp.Action) error {
	lease, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	stop := context.AfterFunc(ctx, lease.cancel)
	defer stop()

	htmlPath, cleanup, err := writeTempHTML(html)
	if err != nil {
		return err
	}
	defer cleanup()

	runCtx, runCancel := context.WithTimeout(lease.Ctx, b.loadTimeout)
	defer runCancel()

	actions := []chromedp.Action{}
	if viewport != nil {
		actions = append(actions, viewport)
	}
	actions = append(actions,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settleDelay),
		capture,
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrRenderTimeout, b.loadTimeout)
		}
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// writeTempHTML persists the content so the tab can navigate to it over
// file://, which lets relative subresources in self-contained documents
// resolve the same way the original editor preview does
func writeTempHTML(html string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "catalogstudio-render-")
	if err != nil {
		return "", nil, err
	}
	htmlPath := filepath.Join(dir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return htmlPath, func() { os.RemoveAll(dir) }, nil
}
