package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kalambet/devfolio/internal/config"
	"github.com/kalambet/devfolio/internal/mockapi"
	"github.com/kalambet/devfolio/internal/profileview"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

// --- helpers ---

type recordedRequest struct {
	Path string
	Auth string
}

type testBackend struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestBackend(t *testing.T, status int, body string) *testBackend {
	t.Helper()
	tb := &testBackend{}
	tb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tb.requests = append(tb.requests, recordedRequest{
			Path: r.URL.EscapedPath(),
			Auth: r.Header.Get("Authorization"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(tb.server.Close)
	return tb
}

// useConfig makes every command see cfg and sends status output to the
// returned buffer.
func useConfig(t *testing.T, cfg config.Config) *bytes.Buffer {
	t.Helper()
	oldLoad, oldStderr, oldColor := loadConfig, stderr, noColor
	t.Cleanup(func() {
		loadConfig, stderr, noColor = oldLoad, oldStderr, oldColor
	})
	loadConfig = func() (config.Config, error) { return cfg, nil }
	errBuf := &bytes.Buffer{}
	stderr = errBuf
	return errBuf
}

func testConfig(t *testing.T, backendURL string) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Backend.BaseURL = backendURL
	cfg.View.TagLimit = 2
	cfg.View.DescriptionLimit = 160
	cfg.Storage.DataDir = t.TempDir()
	cfg.Log.Level = "error"
	cfg.Mock.Port = 5050
	return cfg
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

const twoProjects = `{
  "projects": [
    {"_id": "p1", "title": "Portfolio", "description": "My site", "img": "", "techstacks": ["react", "node", "mongo", "aws"]}
  ],
  "collaboratedProjects": []
}`

// --- output ---

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "hello"); got != "hello" {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", got)
	}

	noColor = false
	if got := colorize(colorRed, "hello"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

func TestPrinters(t *testing.T) {
	old, oldColor := stderr, noColor
	defer func() { stderr, noColor = old, oldColor }()
	buf := &bytes.Buffer{}
	stderr = buf
	noColor = true

	printSuccess("done %d", 1)
	printError("bad")
	printWarning("careful")
	printStep("next")
	printStatus("Label", "value")

	want := "✓ done 1\n✗ bad\n⚠ careful\n→ next\n  Label: value\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

// --- wiring ---

type fakeFetchLog struct {
	saved []storage.FetchRecord
	err   error
}

func (f *fakeFetchLog) SaveFetch(r storage.FetchRecord) error {
	f.saved = append(f.saved, r)
	return f.err
}

func TestHistoryRecorder(t *testing.T) {
	log := &fakeFetchLog{}
	rec := &historyRecorder{store: log}

	rec.Record(profileview.Outcome{
		Subject:           "u1",
		Generation:        3,
		Result:            profileview.ResultReady,
		OwnedCount:        2,
		CollaboratedCount: 1,
	})

	if len(log.saved) != 1 {
		t.Fatalf("expected 1 record, got %d", len(log.saved))
	}
	r := log.saved[0]
	if _, err := uuid.Parse(r.ID); err != nil {
		t.Errorf("record ID %q is not a UUID: %v", r.ID, err)
	}
	if r.Subject != "u1" || r.Generation != 3 || r.Outcome != storage.OutcomeReady {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.OwnedCount != 2 || r.CollaboratedCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", r.OwnedCount, r.CollaboratedCount)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	log.err = errors.New("disk full")
	rec.Record(profileview.Outcome{Subject: "u2", Result: profileview.ResultFailed})
}

func TestProjectLink(t *testing.T) {
	intent := profileview.NavigationIntent{ProjectID: "p1", Path: "/project/p1"}
	if got := projectLink("", intent); got != "/project/p1" {
		t.Errorf("projectLink without web URL = %q", got)
	}
	if got := projectLink("https://devfolio.example/", intent); got != "https://devfolio.example/project/p1" {
		t.Errorf("projectLink with web URL = %q", got)
	}

	buf := &bytes.Buffer{}
	linkPrinter{webURL: "https://devfolio.example", w: buf}.Navigate(intent)
	if buf.String() != "https://devfolio.example/project/p1\n" {
		t.Errorf("linkPrinter wrote %q", buf.String())
	}
}

// --- view ---

func TestViewCommand_JSON(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	useConfig(t, testConfig(t, tb.server.URL))

	out, err := execute(t, "view", "u1", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var page profileview.Page
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("output is not a page: %v\n%s", err, out)
	}
	if page.Phase != profileview.PhaseReady || page.Subject != "u1" {
		t.Errorf("phase=%v subject=%q", page.Phase, page.Subject)
	}
	if len(page.Owned.Cards) != 1 || page.Owned.Cards[0].Tags.Overflow != 2 {
		t.Errorf("owned = %+v", page.Owned)
	}
	if !page.Collaborated.Empty {
		t.Error("collaborated should be empty")
	}

	if len(tb.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(tb.requests))
	}
	if tb.requests[0].Path != "/api/project/user-projects/u1" {
		t.Errorf("path = %q", tb.requests[0].Path)
	}
	if tb.requests[0].Auth != "" {
		t.Errorf("unauthenticated request carried %q", tb.requests[0].Auth)
	}
}

func TestViewCommand_PlainWithOpen(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	cfg := testConfig(t, tb.server.URL)
	cfg.View.WebURL = "https://devfolio.example"
	useConfig(t, cfg)

	out, err := execute(t, "view", "u1", "--plain", "--open", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Portfolio", "react", "node", "+2", profileview.EmptyPlaceholder, "https://devfolio.example/project/p1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestViewCommand_JSONWithOpen(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	cfg := testConfig(t, tb.server.URL)
	cfg.View.WebURL = "https://devfolio.example"
	errBuf := useConfig(t, cfg)

	out, err := execute(t, "view", "u1", "--json", "--open", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		profileview.Page
		Navigation *profileview.NavigationIntent `json:"navigation"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("stdout is not one JSON document: %v\n%s", err, out)
	}
	if doc.Navigation == nil || doc.Navigation.ProjectID != "p1" || doc.Navigation.Path != "/project/p1" {
		t.Errorf("navigation = %+v, want p1", doc.Navigation)
	}
	if doc.Subject != "u1" || len(doc.Owned.Cards) != 1 {
		t.Errorf("page = %+v", doc.Page)
	}
	if !strings.Contains(errBuf.String(), "https://devfolio.example/project/p1") {
		t.Errorf("stderr = %q, want the project link", errBuf.String())
	}

	_, err = execute(t, "view", "u1", "--json", "--open", "nope")
	if !errors.Is(err, profileview.ErrUnknownProject) {
		t.Errorf("err = %v, want ErrUnknownProject", err)
	}
}

func TestViewCommand_OpenUnknownProject(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	useConfig(t, testConfig(t, tb.server.URL))

	_, err := execute(t, "view", "u1", "--plain", "--open", "nope")
	if !errors.Is(err, profileview.ErrUnknownProject) {
		t.Fatalf("err = %v, want ErrUnknownProject", err)
	}
}

func TestViewCommand_FailureNotice(t *testing.T) {
	tb := newTestBackend(t, http.StatusUnauthorized, `{"message":"Not authorized"}`)
	errBuf := useConfig(t, testConfig(t, tb.server.URL))

	out, err := execute(t, "--no-color", "view", "u1", "--plain")
	if err != nil {
		t.Fatalf("page should not hard-fail: %v", err)
	}
	if !strings.Contains(errBuf.String(), "✗ Not authorized") {
		t.Errorf("stderr = %q, want the backend message", errBuf.String())
	}
	if !strings.Contains(out, profileview.EmptyPlaceholder) {
		t.Errorf("sections should render the placeholder:\n%s", out)
	}
}

func TestViewCommand_SubjectFromCredential(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	cfg := testConfig(t, tb.server.URL)
	token, err := mockapi.MintToken("k", "me-42", time.Hour)
	if err != nil {
		t.Fatalf("minting: %v", err)
	}
	cfg.Session.Token = token
	useConfig(t, cfg)

	if _, err := execute(t, "view", "--json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tb.requests) != 1 || tb.requests[0].Path != "/api/project/user-projects/me-42" {
		t.Fatalf("requests = %+v", tb.requests)
	}
	if tb.requests[0].Auth != "Bearer "+token {
		t.Errorf("auth = %q", tb.requests[0].Auth)
	}
}

func TestViewCommand_NoSubject(t *testing.T) {
	useConfig(t, testConfig(t, "http://127.0.0.1:1"))

	_, err := execute(t, "view", "--json")
	if !errors.Is(err, session.ErrNoSubject) {
		t.Fatalf("err = %v, want ErrNoSubject", err)
	}
}

func TestViewCommand_MissingBackend(t *testing.T) {
	useConfig(t, testConfig(t, ""))

	_, err := execute(t, "view", "u1", "--json")
	if err == nil || !strings.Contains(err.Error(), "backend URL") {
		t.Fatalf("err = %v, want missing backend error", err)
	}
}

// --- history ---

func TestHistoryCommand(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, twoProjects)
	useConfig(t, testConfig(t, tb.server.URL))

	if _, err := execute(t, "view", "u1", "--json"); err != nil {
		t.Fatalf("view: %v", err)
	}
	out, err := execute(t, "--no-color", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "u1") || !strings.Contains(out, "ready") || !strings.Contains(out, "owned=1 collaborated=0") {
		t.Errorf("unexpected history:\n%s", out)
	}

	out, err = execute(t, "history", "--subject", "someone-else")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No fetches recorded.") {
		t.Errorf("expected empty history, got:\n%s", out)
	}
}

// --- session ---

func TestSessionSetAndShow(t *testing.T) {
	errBuf := useConfig(t, testConfig(t, ""))

	if _, err := execute(t, "session", "set", "name", "Ada Lovelace"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if _, err := execute(t, "session", "set", "skills", "go, sql"); err != nil {
		t.Fatalf("set skills: %v", err)
	}

	out, err := execute(t, "session", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var p struct {
		Name   string   `json:"name"`
		Skills []string `json:"skills"`
	}
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("parsing profile: %v\n%s", err, out)
	}
	if p.Name != "Ada Lovelace" || len(p.Skills) != 2 || p.Skills[1] != "sql" {
		t.Errorf("profile = %+v", p)
	}
	if !strings.Contains(errBuf.String(), "Credential") {
		t.Errorf("expected credential status, got %q", errBuf.String())
	}

	if _, err := execute(t, "session", "set", "nickname", "x"); err == nil {
		t.Error("expected error for unknown profile key")
	}
}

func TestSessionLoginLogout(t *testing.T) {
	useConfig(t, testConfig(t, ""))
	oldSave, oldClear := saveToken, clearToken
	defer func() { saveToken, clearToken = oldSave, oldClear }()

	var saved string
	cleared := false
	saveToken = func(tok string) error { saved = tok; return nil }
	clearToken = func() error { cleared = true; return nil }

	token, err := mockapi.MintToken("k", "u-7", time.Hour)
	if err != nil {
		t.Fatalf("minting: %v", err)
	}
	if _, err := execute(t, "session", "login", "--token", token); err != nil {
		t.Fatalf("login: %v", err)
	}
	if saved != token {
		t.Errorf("saved token = %q", saved)
	}

	if _, err := execute(t, "session", "login"); err == nil {
		t.Error("expected error without --token")
	}

	if _, err := execute(t, "session", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !cleared {
		t.Error("logout did not clear the token")
	}
}

// --- config ---

func TestConfigShow(t *testing.T) {
	useConfig(t, testConfig(t, "https://api.example"))

	out, err := execute(t, "--no-color", "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "backend.base_url = https://api.example") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "session.token") {
		t.Error("secrets must not be shown")
	}
}

// --- mock-backend ---

func TestMockBackendMint(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Mock.Secret = "s3cret"
	useConfig(t, cfg)

	out, err := execute(t, "mock-backend", "--mint", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := mockapi.ParseToken("s3cret", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if id != "u1" {
		t.Errorf("id = %q, want u1", id)
	}
}

func TestServeMockListener(t *testing.T) {
	old := stderr
	defer func() { stderr = old }()
	stderr = &bytes.Buffer{}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMockListener(ctx, ln, mockapi.Options{}) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/project/user-projects/u1")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusCommand(t *testing.T) {
	tb := newTestBackend(t, http.StatusOK, `{"status":"ok"}`)
	errBuf := useConfig(t, testConfig(t, tb.server.URL))

	if _, err := execute(t, "--no-color", "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	got := errBuf.String()
	if !strings.Contains(got, "reachable, HTTP 200") {
		t.Errorf("status output = %q, want reachable backend", got)
	}
	if !strings.Contains(got, "Data dir") {
		t.Errorf("status output = %q, want data dir", got)
	}
	if len(tb.requests) != 1 || tb.requests[0].Path != "/health" {
		t.Errorf("requests = %+v, want one GET /health", tb.requests)
	}
}

func TestProbeBackend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if got := probeBackend(context.Background(), url); got != "unreachable" {
		t.Errorf("probeBackend = %q, want unreachable", got)
	}
}
