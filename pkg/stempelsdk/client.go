// Package stempelsdk is a small typed client for the stempeld API, shared by
// end-to-end tests and tooling.
package stempelsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// AdminToken, when set, is sent as a bearer token on admin endpoints.
	AdminToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, "/readyz", nil, &out, false)
	return out, err
}

// Scan submits a raw QR payload for the device.
func (c *Client) Scan(ctx context.Context, deviceID, payload string) (CheckinResponse, error) {
	var out CheckinResponse
	err := c.do(ctx, http.MethodPost, "/v1/scan", ScanRequest{DeviceID: deviceID, Payload: payload}, &out, false)
	return out, err
}

// Checkin records a pre-decoded event reference for the device.
func (c *Client) Checkin(ctx context.Context, req CheckinRequest) (CheckinResponse, error) {
	var out CheckinResponse
	err := c.do(ctx, http.MethodPost, "/v1/checkins", req, &out, false)
	return out, err
}

func (c *Client) Stamps(ctx context.Context, deviceID string) ([]Stamp, error) {
	var out StampsResponse
	err := c.do(ctx, http.MethodGet, "/v1/stamps?device_id="+url.QueryEscape(deviceID), nil, &out, false)
	return out.Stamps, err
}

func (c *Client) ActiveEvents(ctx context.Context) ([]Event, error) {
	var out EventsResponse
	err := c.do(ctx, http.MethodGet, "/v1/events", nil, &out, false)
	return out.Events, err
}

func (c *Client) Profile(ctx context.Context, deviceID string) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/v1/profile?device_id="+url.QueryEscape(deviceID), nil, &out, false)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, deviceID, displayName string) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodPut, "/v1/profile",
		UpdateProfileRequest{DeviceID: deviceID, DisplayName: displayName}, &out, false)
	return out, err
}

// AdminLogin exchanges the shared secret for a session token and remembers it
// on the client.
func (c *Client) AdminLogin(ctx context.Context, secret string) (AdminLoginResponse, error) {
	var out AdminLoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/login", AdminLoginRequest{Secret: secret}, &out, false); err != nil {
		return AdminLoginResponse{}, err
	}
	c.AdminToken = out.Token
	return out, nil
}

func (c *Client) CreateEvent(ctx context.Context, name, description string) (Event, error) {
	var out Event
	err := c.do(ctx, http.MethodPost, "/v1/admin/events",
		CreateEventRequest{Name: name, Description: description}, &out, true)
	return out, err
}

func (c *Client) AllEvents(ctx context.Context) ([]Event, error) {
	var out EventsResponse
	err := c.do(ctx, http.MethodGet, "/v1/admin/events", nil, &out, true)
	return out.Events, err
}

func (c *Client) SetEventActive(ctx context.Context, eventID string, active bool) error {
	return c.do(ctx, http.MethodPost,
		"/v1/admin/events/"+url.PathEscape(eventID)+"/active",
		SetEventActiveRequest{Active: active}, nil, true)
}

// EventQR fetches the QR payload string for an event.
func (c *Client) EventQR(ctx context.Context, eventID string) (string, error) {
	var out QRPayloadResponse
	err := c.do(ctx, http.MethodGet, "/v1/admin/events/"+url.PathEscape(eventID)+"/qr", nil, &out, true)
	return out.Payload, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var out LeaderboardResponse
	err := c.do(ctx, http.MethodGet, "/v1/admin/leaderboard", nil, &out, true)
	return out.Entries, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, admin bool) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		if c.AdminToken == "" {
			return fmt.Errorf("stempelsdk: admin endpoint %s requires AdminLogin first", path)
		}
		req.Header.Set("Authorization", "Bearer "+c.AdminToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
