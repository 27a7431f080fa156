//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// The e2e run expects `serve`, `schedule` and `consume dispatch` running with
// EMAIL_PROVIDER=noop, a short SCHEDULER_INTERVAL and a seeded API user.
const (
	defaultHTTPBase = "http://localhost:8080"
	defaultGRPCAddr = "localhost:9090"
	defaultUser     = "e2e@example.com"
	defaultPassword = "e2e-password"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type apiClient struct {
	baseURL  string
	user     string
	password string
	client   *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL:  env("MAILINGS_HTTP_URL", defaultHTTPBase),
		user:     env("MAILINGS_E2E_USER", defaultUser),
		password: env("MAILINGS_E2E_PASSWORD", defaultPassword),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if out != nil && resp.StatusCode < 300 && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode %s failed: %v", string(data), err)
		}
	}
	return resp.StatusCode
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestGRPCHealth(t *testing.T) {
	conn, err := grpc.NewClient(env("MAILINGS_GRPC_ADDR", defaultGRPCAddr), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc client failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: "mailings"}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}

func TestMailingLifecycleE2E(t *testing.T) {
	client := newAPIClient()
	if err := waitForHTTP(client.baseURL, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("client-%d@example.com", suffix)

	var created struct {
		ID int64 `json:"id"`
	}
	if code := client.do(t, http.MethodPost, "/api/clients", map[string]any{"email": email, "fullname": "E2E Client"}, &created); code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d", code)
	}
	if code := client.do(t, http.MethodPost, "/api/clients", map[string]any{"email": email, "fullname": "Duplicate"}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate client: expected 409, got %d", code)
	}
	if code := client.do(t, http.MethodPost, "/api/clients", map[string]any{"email": "invalid", "fullname": "Bad"}, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid client: expected 400, got %d", code)
	}

	var mail struct {
		ID int64 `json:"id"`
	}
	if code := client.do(t, http.MethodPost, "/api/mails", map[string]any{"subject": "E2E", "content": "Hello from e2e"}, &mail); code != http.StatusCreated {
		t.Fatalf("create mail: expected 201, got %d", code)
	}

	now := time.Now().UTC()
	var mailing struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if code := client.do(t, http.MethodPost, "/api/mailings", map[string]any{
		"mail_id":       mail.ID,
		"recipient_ids": []int64{created.ID},
		"start":         now.Add(-time.Minute),
		"finish":        now.Add(time.Hour),
		"frequency":     "once",
	}, &mailing); code != http.StatusCreated {
		t.Fatalf("create mailing: expected 201, got %d", code)
	}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if code := client.do(t, http.MethodGet, fmt.Sprintf("/api/mailings/%d", mailing.ID), nil, &mailing); code != http.StatusOK {
			t.Fatalf("get mailing: expected 200, got %d", code)
		}
		if mailing.Status == "finished" {
			break
		}
		time.Sleep(time.Second)
	}
	if mailing.Status != "finished" {
		t.Fatalf("mailing %d did not finish, status=%s", mailing.ID, mailing.Status)
	}

	var logs []struct {
		ClientID int64  `json:"client_id"`
		Status   string `json:"status"`
	}
	if code := client.do(t, http.MethodGet, fmt.Sprintf("/api/mailings/%d/logs", mailing.ID), nil, &logs); code != http.StatusOK {
		t.Fatalf("list logs: expected 200, got %d", code)
	}
	if len(logs) != 1 || logs[0].ClientID != created.ID || logs[0].Status != "sent" {
		t.Fatalf("expected one sent log row, got %+v", logs)
	}

	if code := client.do(t, http.MethodDelete, fmt.Sprintf("/api/mailings/%d", mailing.ID), nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete mailing: expected 204, got %d", code)
	}
}
