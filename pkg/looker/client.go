// Package looker is a minimal Looker API 4.0 client for the dashboard calls the
// metadata extractor makes.
package looker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashboard-summarizer/internal/dto"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const apiPath = "/api/4.0"

type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient authenticates with API3 client credentials. Looker's login endpoint
// takes client_id/client_secret as form params and returns a bearer token.
func NewClient(ctx context.Context, baseURL, clientID, clientSecret string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	creds := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + apiPath + "/login",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	httpClient := creds.Client(context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 30 * time.Second}))
	httpClient.Timeout = 60 * time.Second

	return &Client{
		BaseURL: baseURL,
		Client:  httpClient,
	}
}

// NewClientWithHTTP uses an already-authenticated HTTP client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  httpClient,
	}
}

func (c *Client) DashboardFilters(ctx context.Context, dashboardID string) ([]dto.DashboardFilter, error) {
	var resp dto.DashboardFiltersResponse
	path := "/dashboards/" + url.PathEscape(dashboardID)
	if err := c.get(ctx, path, url.Values{"fields": {"dashboard_filters"}}, &resp); err != nil {
		return nil, err
	}
	return resp.DashboardFilters, nil
}

func (c *Client) DashboardElements(ctx context.Context, dashboardID string) ([]dto.DashboardElement, error) {
	var elements []dto.DashboardElement
	path := "/dashboards/" + url.PathEscape(dashboardID) + "/dashboard_elements"
	if err := c.get(ctx, path, url.Values{"fields": {"query,result_maker"}}, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.BaseURL + apiPath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("looker request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("looker error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
