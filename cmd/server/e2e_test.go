package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

const e2eSecret = "e2e-secret"

type e2e struct {
	t      *testing.T
	server *httptest.Server
}

func newE2E(t *testing.T) *e2e {
	cfg := &config.Config{
		DatabaseURL:        "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		BaseURL:            "https://share.example.com",
		JWTSecret:          e2eSecret,
		StorageDriver:      "local",
		StorageRoot:        t.TempDir(),
		BcryptCost:         4,
		PurgeOrphanedFiles: true,
		MaxUploadBytes:     1 << 20,
	}

	mux, cleanup, err := buildHandler(context.Background(), cfg, logging.NewLogger(logging.LevelError, io.Discard))
	if err != nil {
		t.Fatalf("Failed to build handler: %v", err)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		cleanup()
	})
	return &e2e{t: t, server: server}
}

func (e *e2e) token(owner string) string {
	claims := &jwt.RegisteredClaims{
		Subject:   owner,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e2eSecret))
	if err != nil {
		e.t.Fatalf("Failed to sign token: %v", err)
	}
	return tok
}

func (e *e2e) call(method, path, owner string, body io.Reader) (int, []byte) {
	e.t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		e.t.Fatal(err)
	}
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(owner))
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		e.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (e *e2e) share(owner, file string, opts map[string]interface{}) (id, token string) {
	e.t.Helper()
	if status, body := e.call("PUT", "/files/"+file, owner, strings.NewReader("mixdown-v3")); status != http.StatusCreated {
		e.t.Fatalf("Upload expected 201, got %d: %s", status, body)
	}

	payload := map[string]interface{}{
		"filePath": owner + "/" + file,
		"fileName": file,
		"fileSize": 10,
	}
	for k, v := range opts {
		payload[k] = v
	}
	raw, _ := json.Marshal(payload)
	status, body := e.call("POST", "/share/create", owner, bytes.NewReader(raw))
	if status != http.StatusCreated {
		e.t.Fatalf("Create expected 201, got %d: %s", status, body)
	}

	var created struct {
		ID    string `json:"id"`
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		e.t.Fatal(err)
	}
	if created.URL != "https://share.example.com/shared/"+created.Token {
		e.t.Errorf("Unexpected share URL %q", created.URL)
	}
	return created.ID, created.Token
}

func errorCode(t *testing.T, body []byte) string {
	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Body is not an error envelope: %s", body)
	}
	return envelope.Code
}

func TestSingleUseLink(t *testing.T) {
	e := newE2E(t)
	_, token := e.share("alice", "track.wav", map[string]interface{}{"maxDownloads": 1})

	status, body := e.call("POST", "/shared/"+token+"/download", "", nil)
	if status != http.StatusOK || string(body) != "mixdown-v3" {
		t.Fatalf("First download expected 200 with bytes, got %d: %s", status, body)
	}

	status, body = e.call("POST", "/shared/"+token+"/download", "", nil)
	if status != http.StatusGone || errorCode(t, body) != "download_limit_reached" {
		t.Errorf("Second download expected 410 download_limit_reached, got %d: %s", status, body)
	}
}

func TestExpiredLink(t *testing.T) {
	e := newE2E(t)
	_, token := e.share("alice", "track.wav", map[string]interface{}{"expiresIn": -1})

	status, body := e.call("GET", "/shared/"+token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("Info expected 200, got %d: %s", status, body)
	}
	var info struct {
		Redeemable bool   `json:"redeemable"`
		Reason     string `json:"reason"`
	}
	_ = json.Unmarshal(body, &info)
	if info.Redeemable || info.Reason == "" {
		t.Errorf("Expected a non-redeemable link with a reason, got %s", body)
	}

	status, body = e.call("POST", "/shared/"+token+"/download", "", nil)
	if status != http.StatusGone || errorCode(t, body) != "link_expired" {
		t.Errorf("Download expected 410 link_expired, got %d: %s", status, body)
	}
}

func TestPasswordLink(t *testing.T) {
	e := newE2E(t)
	_, token := e.share("alice", "track.wav", map[string]interface{}{"password": "secret123"})

	status, body := e.call("GET", "/shared/"+token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("Info expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"requiresPassword":true`) {
		t.Errorf("Info should flag the password: %s", body)
	}
	if strings.Contains(string(body), "secret123") || strings.Contains(string(body), "$2a$") {
		t.Errorf("Info leaks the password or its hash: %s", body)
	}

	status, _ = e.call("POST", "/shared/"+token+"/download", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("Download without password expected 401, got %d", status)
	}

	status, body = e.call("POST", "/shared/"+token+"/download", "", strings.NewReader(`{"password":"secret123"}`))
	if status != http.StatusOK || string(body) != "mixdown-v3" {
		t.Errorf("Download with password expected 200, got %d: %s", status, body)
	}
}

func TestForeignDeactivate(t *testing.T) {
	e := newE2E(t)
	id, token := e.share("alice", "track.wav", nil)

	status, _ := e.call("PATCH", "/share/"+id+"/deactivate", "bob", nil)
	if status != http.StatusForbidden {
		t.Errorf("Foreign deactivate expected 403, got %d", status)
	}

	status, body := e.call("GET", "/shared/"+token, "", nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"isActive":true`) {
		t.Errorf("Link should still be active, got %d: %s", status, body)
	}
	status, _ = e.call("POST", "/shared/"+token+"/download", "", nil)
	if status != http.StatusOK {
		t.Errorf("Link should still be redeemable, got %d", status)
	}
}

func TestDeletedLinkIsIndistinguishable(t *testing.T) {
	e := newE2E(t)
	id, token := e.share("alice", "track.wav", nil)

	if status, _ := e.call("DELETE", "/share/"+id, "alice", nil); status != http.StatusNoContent {
		t.Fatalf("Delete expected 204, got %d", status)
	}

	deletedStatus, deletedBody := e.call("GET", "/shared/"+token, "", nil)
	unknownStatus, unknownBody := e.call("GET", "/shared/"+uuid.NewString(), "", nil)
	if deletedStatus != http.StatusNotFound || unknownStatus != http.StatusNotFound {
		t.Fatalf("Expected 404 for both, got %d and %d", deletedStatus, unknownStatus)
	}
	if !bytes.Equal(deletedBody, unknownBody) {
		t.Errorf("Deleted and unknown tokens differ: %s vs %s", deletedBody, unknownBody)
	}
}
