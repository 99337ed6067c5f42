package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"saggita/internal/models"
)

// BaseURL points the suite at a running API instance. The suite skips
// entirely when it is unset, so plain `go test ./...` stays green without
// a database.
func BaseURL(t *testing.T) string {
	url := os.Getenv("BASE_URL")
	if url == "" {
		t.Skip("BASE_URL not set, skipping integration tests")
	}
	return url
}

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client

	adminUser string
	adminPass string
}

// NewTestClient creates a new test client
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		adminUser: os.Getenv("ADMIN_EMAIL"),
		adminPass: os.Getenv("ADMIN_PASSWORD"),
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}, asAdmin bool) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asAdmin {
		if c.adminUser == "" {
			t.Skip("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin test")
		}
		req.SetBasicAuth(c.adminUser, c.adminPass)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// HealthCheck verifies the API is up
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
}

// GetCatalog fetches the public offer
func (c *TestClient) GetCatalog(t *testing.T) *models.CatalogResponse {
	resp := c.makeRequest(t, "GET", "/api/catalog", nil, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var catalog models.CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		t.Fatalf("Failed to decode catalog response: %v", err)
	}

	return &catalog
}

// GetCapacity fetches live occupancy of a group
func (c *TestClient) GetCapacity(t *testing.T, groupID int64) *models.CapacityResult {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/groups/%d/capacity", groupID), nil, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var result models.CapacityResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode capacity response: %v", err)
	}

	return &result
}

// Register submits a web registration
func (c *TestClient) Register(t *testing.T, req *models.RegisterRequest) *models.RegisterResponse {
	resp := c.makeRequest(t, "POST", "/api/registrations", req, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var out models.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}

	return &out
}

// FinalizeAction submits a confirmation-page action
func (c *TestClient) FinalizeAction(t *testing.T, paymentRef, action string) *models.FinalizeActionResponse {
	resp := c.makeRequest(t, "POST", "/api/registrations/action", models.FinalizeActionRequest{
		PaymentRef: paymentRef,
		Action:     action,
	}, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var out models.FinalizeActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode action response: %v", err)
	}

	return &out
}

// Status fetches the public registration status by payment reference
func (c *TestClient) Status(t *testing.T, paymentRef string) *models.RegistrationStatusResponse {
	resp := c.makeRequest(t, "GET", "/api/registrations/status/"+paymentRef, nil, false)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var out models.RegistrationStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode status response: %v", err)
	}

	return &out
}

// GetWithAuth performs a GET with explicit staff credentials and returns the
// raw response so callers can assert on the status code.
func (c *TestClient) GetWithAuth(t *testing.T, path, email, password string) *http.Response {
	req, err := http.NewRequest("GET", c.BaseURL+path, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.SetBasicAuth(email, password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// ListRoster fetches the unified roster as admin
func (c *TestClient) ListRoster(t *testing.T, query string) *models.RosterPage {
	resp := c.makeRequest(t, "GET", "/api/admin/students"+query, nil, true)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var page models.RosterPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode roster response: %v", err)
	}

	return &page
}
