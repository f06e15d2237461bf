package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/screenloom/screenloom/pkg/cache"
	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/publish"
	"github.com/screenloom/screenloom/pkg/store"
)

const testStream = `PROJECT: Demo
SCREEN_START: Home [0,0] [ROOT]
<h1>Home</h1><a href="#screen-about" data-flow="screen-about">About</a>
SCREEN_END
SCREEN_START: About [1,0]
<h1>About</h1>
SCREEN_END
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	runner := pipeline.NewRunner(store.NewMemoryStore(), cache.NewNullCache(), nil, nil)
	pub, err := publish.NewFilePublisher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePublisher: %v", err)
	}
	ts := httptest.NewServer(New(runner, pub, nil).Router())
	t.Cleanup(ts.Close)
	return ts
}

func createProject(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/projects", "application/json",
		strings.NewReader(`{"name":"Demo","platform":"mobile"}`))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project status = %d", resp.StatusCode)
	}
	var p store.Project
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	return p.ID
}

func generate(t *testing.T, ts *httptest.Server, projectID string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/projects/"+projectID+"/generate",
		"text/plain", strings.NewReader(testStream))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("generate status = %d: %s", resp.StatusCode, body)
	}
}

func TestGenerateAndScreens(t *testing.T) {
	ts := newTestServer(t)
	id := createProject(t, ts)
	generate(t, ts, id)

	resp, err := http.Get(ts.URL + "/api/projects/" + id + "/screens")
	if err != nil {
		t.Fatalf("screens: %v", err)
	}
	defer resp.Body.Close()

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode screens: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("screens = %d, want 2", len(records))
	}
	if records[0]["id"] != "screen-home" {
		t.Errorf("first screen = %v, want screen-home", records[0]["id"])
	}
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t)
	id := createProject(t, ts)
	generate(t, ts, id)

	resp, err := http.Get(ts.URL + "/api/projects/" + id + "/preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	doc, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(doc), `id="screen-home"`) {
		t.Error("preview missing composed screens")
	}
}

func TestFlowsJSON(t *testing.T) {
	ts := newTestServer(t)
	id := createProject(t, ts)
	generate(t, ts, id)

	resp, err := http.Get(ts.URL + "/api/projects/" + id + "/flows")
	if err != nil {
		t.Fatalf("flows: %v", err)
	}
	defer resp.Body.Close()

	var edges []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&edges); err != nil {
		t.Fatalf("decode flows: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("flows = %d, want 1", len(edges))
	}
	if edges[0]["to_screen_id"] != "screen-about" {
		t.Errorf("edge = %v", edges[0])
	}
}

func TestPublishAndShare(t *testing.T) {
	ts := newTestServer(t)
	id := createProject(t, ts)
	generate(t, ts, id)

	resp, err := http.Post(ts.URL+"/api/projects/"+id+"/publish", "application/json", nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	defer resp.Body.Close()
	var art publish.Artifact
	if err := json.NewDecoder(resp.Body).Decode(&art); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if art.ShareToken == "" {
		t.Fatal("no share token")
	}

	shareResp, err := http.Get(ts.URL + "/share/" + art.ShareToken)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	defer shareResp.Body.Close()
	doc, _ := io.ReadAll(shareResp.Body)
	if !strings.Contains(string(doc), "<!DOCTYPE html>") {
		t.Error("shared artifact is not the composed document")
	}
}

func TestErrorPayloadCarriesCode(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/projects/nope/screens")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var payload errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != "PROJECT_NOT_FOUND" {
		t.Errorf("code = %q, want PROJECT_NOT_FOUND", payload.Error.Code)
	}
}

func TestCreateProjectRejectsBadPlatform(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/projects", "application/json",
		strings.NewReader(`{"name":"Demo","platform":"tablet"}`))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
