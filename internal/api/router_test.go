package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"locline/internal/adapters/exporter/idline"
	parseidline "locline/internal/adapters/parser/idline"
	"locline/internal/config"
	"locline/internal/domain"
	"locline/internal/events"
	"locline/internal/ports"
	runnerusecase "locline/internal/usecase/runner"
	"locline/internal/usecase/translator"
)

type stubProvider struct {
	models []domain.ModelInfo
	err    error
}

func (s *stubProvider) Complete(ctx context.Context, req ports.ChatRequest, onDelta func(string)) (string, error) {
	var out []string
	for _, line := range strings.Split(req.UserPrompt, "\n") {
		if id, payload, ok := domain.SplitID(line); ok {
			out = append(out, id+":::X-"+strings.TrimSpace(payload))
		}
	}
	return strings.Join(out, "\n"), nil
}

func (s *stubProvider) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	return s.models, s.err
}

func newTestServer(t *testing.T, provider ports.Provider) (*httptest.Server, *events.Bus, *runnerusecase.Runner) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := events.NewBus()
	rn := runnerusecase.NewRunner(runnerusecase.Deps{
		Translator: translator.New(translator.Deps{
			Build: func(baseURL, apiKey string) ports.Provider { return provider },
		}),
		Parser:   parseidline.New(),
		Exporter: idline.New(),
	}, log)
	rn.SetEmitter(bus)

	cfg := config.Default()
	cfg.Run.Workers = 1
	cfg.Run.Delay = 0
	build := func(baseURL, apiKey string) ports.Provider { return provider }

	srv := httptest.NewServer(NewRouter(rn, build, bus, nil, cfg, log))
	t.Cleanup(srv.Close)
	return srv, bus, rn
}

func TestStartStatusAndOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("0:::h\n1:::Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv, _, rn := newTestServer(t, &stubProvider{})

	body := strings.NewReader(`{"file":"` + strings.ReplaceAll(input, `\`, `\\`) + `"}`)
	resp, err := http.Post(srv.URL+"/api/run/start", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start returned %d", resp.StatusCode)
	}
	var started map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	if started["run_id"] == "" {
		t.Fatal("missing run_id")
	}

	if err := rn.Wait(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, runnerusecase.DefaultOutputName))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "0:::h\n1:::X-Hello\n" {
		t.Fatalf("unexpected output: %q", data)
	}

	statusResp, err := http.Get(srv.URL + "/api/run/status")
	if err != nil {
		t.Fatal(err)
	}
	defer statusResp.Body.Close()
	var status map[string]any
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status["active"] != false {
		t.Fatalf("run still active: %v", status)
	}
	if status["run_id"] != started["run_id"] {
		t.Fatalf("status run_id = %v, want %v", status["run_id"], started["run_id"])
	}
}

func TestStartRejectsBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubProvider{})

	resp, err := http.Post(srv.URL+"/api/run/start", "application/json", strings.NewReader(`{`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/run/start", "application/json", strings.NewReader(`{"file":""}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty file: got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/run/start", "application/json",
		strings.NewReader(`{"file":"/does/not/exist.txt"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing input: got %d", resp.StatusCode)
	}
}

func TestStopEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubProvider{})
	resp, err := http.Post(srv.URL+"/api/run/stop", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop returned %d", resp.StatusCode)
	}
}

func TestModelsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubProvider{
		models: []domain.ModelInfo{{ID: "a-model"}, {ID: "b-model"}},
	})
	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("models returned %d", resp.StatusCode)
	}
	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a-model" || ids[1] != "b-model" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestModelsEndpointUpstreamFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubProvider{err: errors.New("connection refused")})
	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestRunsEndpointWithoutStore(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubProvider{})
	resp, err := http.Get(srv.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("runs returned %d", resp.StatusCode)
	}
	var runs []any
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected an empty list, got %v", runs)
	}
}

func TestStartUsesConfiguredEndpoint(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("1:::Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var gotBase, gotKey string
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := events.NewBus()
	build := func(baseURL, apiKey string) ports.Provider {
		mu.Lock()
		gotBase, gotKey = baseURL, apiKey
		mu.Unlock()
		return &stubProvider{}
	}
	rn := runnerusecase.NewRunner(runnerusecase.Deps{
		Translator: translator.New(translator.Deps{Build: build}),
		Parser:     parseidline.New(),
		Exporter:   idline.New(),
	}, log)
	rn.SetEmitter(bus)
	srv := httptest.NewServer(NewRouter(rn, build, bus, nil, config.Default(), log))
	defer srv.Close()

	body := `{"file":"` + strings.ReplaceAll(input, `\`, `\\`) + `",` +
		`"config":{"base_url":"http://per-run.example/v1","api_key":"per-run-key","model":"m","workers":1,"batch_size":10}}`
	resp, err := http.Post(srv.URL+"/api/run/start", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start returned %d", resp.StatusCode)
	}
	if err := rn.Wait(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotBase != "http://per-run.example/v1" || gotKey != "per-run-key" {
		t.Fatalf("run contacted %q with key %q, want the overridden endpoint", gotBase, gotKey)
	}
}

func TestEventsStream(t *testing.T) {
	srv, bus, _ := newTestServer(t, &stubProvider{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// The subscription is registered inside the handler; keep emitting until
	// a frame comes through.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				bus.Emit(domain.ProgressEvent{WorkerID: 3, Done: 1, Total: 2, Message: "Ready."})
			}
		}
	}()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.ProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		if ev.WorkerID != 3 || ev.Message != "Ready." {
			t.Fatalf("unexpected event: %+v", ev)
		}
		return
	}
}
