package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"

	"github.com/demart/catalogstudio/config"
	"github.com/demart/catalogstudio/database"
)

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	Logger = logger
	database.Logger = logger
	config.Logger = logger
}

// stubRenderer produces deterministic artifacts without a browser. PDF output
// is a tagged placeholder, image output is a real encoded image at the
// requested dimensions so decoders in handlers and tests stay honest.
type stubRenderer struct {
	pdfErr   error
	imageErr error
}

func (s *stubRenderer) RenderPDF(ctx context.Context, html string, widthMm, heightMm float64, landscape bool) ([]byte, error) {
	if s.pdfErr != nil {
		return nil, s.pdfErr
	}
	return []byte(fmt.Sprintf("%%PDF-stub %.2fx%.2f landscape=%v\n%s", widthMm, heightMm, landscape, html)), nil
}

func (s *stubRenderer) RenderImage(ctx context.Context, html string, widthPx, heightPx, quality int, format string) ([]byte, error) {
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	img := imaging.New(widthPx, heightPx, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	var buffer bytes.Buffer
	var err error
	if format == "jpeg" {
		err = imaging.Encode(&buffer, img, imaging.JPEG, imaging.JPEGQuality(quality))
	} else {
		err = imaging.Encode(&buffer, img, imaging.PNG)
	}
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// newTestHandler builds a ServerHandler over an in-memory database and a
// throwaway export directory
func newTestHandler(t *testing.T, renderer Renderer) *ServerHandler {
	t.Helper()

	serverConfig := config.ServerConfig{
		DatabaseType:   "sqlite",
		DatabaseDbname: ":memory:",
		ExportPath:     t.TempDir(),
		RenderTimeout:  15000,
		RenderSettle:   300,
	}
	db := database.NewRepository(serverConfig)
	t.Cleanup(func() { db.Close() })

	return &ServerHandler{
		DB:           db,
		Renderer:     renderer,
		Echo:         echo.New(),
		ServerConfig: serverConfig,
	}
}

// doJSON runs a handler against a JSON body and returns the recorder
func doJSON(t *testing.T, handler *ServerHandler, method, target string, body any, route func(echo.Context) error, pathParams ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}

	request := httptest.NewRequest(method, target, reader)
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	echoContext := handler.Echo.NewContext(request, recorder)

	if len(pathParams) > 0 {
		var names, values []string
		for i := 0; i+1 < len(pathParams); i += 2 {
			names = append(names, pathParams[i])
			values = append(values, pathParams[i+1])
		}
		echoContext.SetParamNames(names...)
		echoContext.SetParamValues(values...)
	}

	if err := route(echoContext); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return recorder
}

func decodeJSONMap(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func requireStatus(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("status = %d, want %d, body: %s", recorder.Code, want, recorder.Body.String())
	}
}
