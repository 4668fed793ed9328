package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/devfolio/internal/projects"
)

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("665f1c2ab")
	b := Generate("665f1c2ab")
	assert.Equal(t, a, b)

	for _, p := range append(a.Projects, a.CollaboratedProjects...) {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Title)
		assert.NotNil(t, p.TechStacks)
		assert.LessOrEqual(t, len(p.TechStacks), 6)
	}
}

func TestGenerate_DistinctUsers(t *testing.T) {
	a := Generate("alice")
	b := Generate("bob")
	ids := map[string]bool{}
	for _, p := range append(a.Projects, a.CollaboratedProjects...) {
		ids[p.ID] = true
	}
	for _, p := range append(b.Projects, b.CollaboratedProjects...) {
		assert.False(t, ids[p.ID], "project id %s shared between users", p.ID)
	}
}

func TestPickStacks_Unique(t *testing.T) {
	for _, user := range []string{"u1", "u2", "u3", "u4", "u5"} {
		for _, p := range Generate(user).Projects {
			seen := map[string]bool{}
			for _, s := range p.TechStacks {
				assert.False(t, seen[s], "duplicate stack %q", s)
				seen[s] = true
			}
		}
	}
}

func TestHandler_UserProjects(t *testing.T) {
	h := NewHandler(Options{})
	rec := get(t, h, "/api/project/user-projects/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body UserProjects
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, Generate("u1"), body)
}

func TestHandler_Fixtures(t *testing.T) {
	h := NewHandler(Options{Fixtures: map[string]UserProjects{
		"empty": {Projects: []Project{}, CollaboratedProjects: []Project{}},
	}})
	rec := get(t, h, "/api/project/user-projects/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"projects":[],"collaboratedProjects":[]}`, rec.Body.String())
}

func TestHandler_Health(t *testing.T) {
	rec := get(t, NewHandler(Options{Secret: "s3cret"}), "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_NotFound(t *testing.T) {
	rec := get(t, NewHandler(Options{}), "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String())
}

func TestHandler_AuthRequired(t *testing.T) {
	const secret = "s3cret"
	h := NewHandler(Options{Secret: secret})

	rec := get(t, h, "/api/project/user-projects/u1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized"}`, rec.Body.String())

	bad, err := MintToken("other-secret", "u1", time.Hour)
	require.NoError(t, err)
	rec = get(t, h, "/api/project/user-projects/u1", bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := MintToken(secret, "u1", -time.Minute)
	require.NoError(t, err)
	rec = get(t, h, "/api/project/user-projects/u1", expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	good, err := MintToken(secret, "u1", time.Hour)
	require.NoError(t, err)
	rec = get(t, h, "/api/project/user-projects/someone-else", good)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseToken(t *testing.T) {
	tok, err := MintToken("k", "user-42", time.Hour)
	require.NoError(t, err)

	id, err := ParseToken("k", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)

	_, err = ParseToken("wrong", tok)
	assert.Error(t, err)

	_, err = MintToken("", "u", time.Hour)
	assert.Error(t, err)
}

// The fetcher must understand everything the mock backend serves.
func TestHandler_FetcherContract(t *testing.T) {
	const secret = "contract"
	srv := httptest.NewServer(NewHandler(Options{Secret: secret}))
	defer srv.Close()

	c := projects.NewWithHTTPClient(srv.URL, srv.Client())

	tok, err := MintToken(secret, "me", time.Hour)
	require.NoError(t, err)
	got, err := c.Fetch(context.Background(), "u7", tok)
	require.NoError(t, err)

	want := Generate("u7")
	require.Len(t, got.Owned, len(want.Projects))
	require.Len(t, got.Collaborated, len(want.CollaboratedProjects))
	for i, p := range want.Projects {
		assert.Equal(t, p.ID, got.Owned[i].ID)
		assert.Equal(t, p.Title, got.Owned[i].Title)
		assert.Equal(t, p.TechStacks, got.Owned[i].Tags)
	}

	_, err = c.Fetch(context.Background(), "u7", "")
	var info *projects.ErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, projects.KindService, info.Kind)
	assert.Equal(t, "Not authorized", info.Message)
	assert.Equal(t, http.StatusUnauthorized, info.Status)
}

func TestHandler_LatencyRespectsCancel(t *testing.T) {
	h := NewHandler(Options{Latency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/project/user-projects/u1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after cancellation")
	}
}
