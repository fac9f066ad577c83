package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tubefetch/api/internal/config"
	"github.com/tubefetch/api/internal/extractor"
	"github.com/tubefetch/api/internal/handler"
	"github.com/tubefetch/api/internal/middleware"
	"github.com/tubefetch/api/internal/registry"
	"github.com/tubefetch/api/internal/runner"
	"github.com/tubefetch/api/internal/sandbox"
	ws "github.com/tubefetch/api/internal/websocket"
)

// fakeExtractor stands in for the yt-dlp adapter so flows are deterministic
// and no network or external binary is involved.
type fakeExtractor struct {
	title    string
	isLive   bool
	fetchErr error
	content  []byte
	progress []extractor.Progress

	// When set, Fetch blocks until the channel closes.
	gate chan struct{}

	fetchStarted chan struct{}
}

func (f *fakeExtractor) Probe(ctx context.Context, url string) (*extractor.Metadata, error) {
	return &extractor.Metadata{Title: f.title, IsLive: f.isLive}, nil
}

func (f *fakeExtractor) Fetch(ctx context.Context, url string, opts extractor.FetchOptions) error {
	if f.fetchStarted != nil {
		close(f.fetchStarted)
	}
	for _, p := range f.progress {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.fetchErr != nil {
		return f.fetchErr
	}
	return os.WriteFile(opts.OutputPath, f.content, 0o644)
}

// fakeTranscoder copies the input so the mp3 path is exercised end to end.
type fakeTranscoder struct{}

func (fakeTranscoder) Convert(ctx context.Context, inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// testApp holds all components needed for testing.
type testApp struct {
	app *fiber.App
	ex  *fakeExtractor
	sb  *sandbox.Sandbox
	reg *registry.Registry
}

// setupApp creates a Fiber app wired like main.go but with a fake extractor
// and transcoder. The Redis address points at a closed port so the rate
// limiter fails open and never blocks tests.
func setupApp(t *testing.T, ex *fakeExtractor) *testApp {
	t.Helper()

	sb, err := sandbox.New(t.TempDir())
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { redisClient.Close() })

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	reg := registry.New()
	run := runner.New(reg, sb, ex, fakeTranscoder{}, hub, runner.Limits{
		MaxFileSize:         1 << 20,
		SocketTimeout:       time.Second,
		Retries:             1,
		FragmentConcurrency: 1,
	})

	downloadHandler := handler.NewDownloadHandler(reg, sb, run, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient, config.RateLimitConfig{
		DefaultPerMin:      10000,
		StartPerMin:        10000,
		DownloadFilePerMin: 10000,
	})

	app := fiber.New()
	app.Get("/", handler.Index)
	app.Post("/start_download", rateLimiter.StartLimit(10000), downloadHandler.Start)
	app.Get("/download_status/:id", rateLimiter.DefaultLimit(10000), downloadHandler.Status)
	app.Get("/download_file/:id", rateLimiter.FileLimit(10000), downloadHandler.File)
	app.Get("/cancel_download/:id", rateLimiter.DefaultLimit(10000), downloadHandler.Cancel)

	return &testApp{app: app, ex: ex, sb: sb, reg: reg}
}

func doRequest(app *fiber.App, method, path, body string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return app.Test(req, -1)
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("parse JSON %q: %v", data, err)
	}
	return result
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

// startDownload submits a job and returns its id.
func startDownload(t *testing.T, ta *testApp, body string) string {
	t.Helper()
	resp, err := doRequest(ta.app, http.MethodPost, "/start_download", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["status"] != "started" {
		t.Fatalf("status = %v, want started", result["status"])
	}
	id, _ := result["download_id"].(string)
	if id == "" {
		t.Fatal("expected download_id in response")
	}
	return id
}

// waitForStatus polls /download_status until the payload's status field
// matches want.
func waitForStatus(t *testing.T, ta *testApp, id, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var last map[string]interface{}
	for time.Now().Before(deadline) {
		resp, err := doRequest(ta.app, http.MethodGet, "/download_status/"+id, "")
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		last = parseJSON(t, resp)
		if last["status"] == want {
			return last
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q, last: %v", id, want, last)
	return nil
}

func sandboxFiles(t *testing.T, sb *sandbox.Sandbox) []string {
	t.Helper()
	entries, err := os.ReadDir(sb.Root())
	if err != nil {
		t.Fatalf("read sandbox: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// waitForNoFiles waits for the runner's asynchronous cleanup to finish.
func waitForNoFiles(t *testing.T, sb *sandbox.Sandbox) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(sandboxFiles(t, sb)) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("sandbox files remain: %v", sandboxFiles(t, sb))
}
