// Package idam talks to the external identity directory over its REST
// API. It implements the accounts.IdentityProvider contract.
package idam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/courtlist/courtlist/internal/accounts"
)

// Client wraps interactions with the directory API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type identityPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type createPayload struct {
	Email               string `json:"email"`
	GivenName           string `json:"givenName"`
	Surname             string `json:"surname"`
	Role                string `json:"role"`
	Password            string `json:"password"`
	ForcePasswordChange bool   `json:"forcePasswordChange"`
}

// CreateIdentity mints a new directory identity with the role embedded
// as provider metadata.
func (c *Client) CreateIdentity(ctx context.Context, req accounts.CreateIdentityRequest) (accounts.Identity, error) {
	payload := createPayload{
		Email:               req.Email,
		GivenName:           req.Forenames,
		Surname:             req.Surname,
		Role:                string(req.Role),
		Password:            req.Password,
		ForcePasswordChange: req.ForcePasswordChange,
	}
	var out identityPayload
	if err := c.do(ctx, http.MethodPost, "/identities", payload, &out); err != nil {
		return accounts.Identity{}, err
	}
	return toIdentity(out), nil
}

// FindIdentityByEmail returns the identity holding the email, or nil
// when the directory has none.
func (c *Client) FindIdentityByEmail(ctx context.Context, email string) (*accounts.Identity, error) {
	path := "/identities?email=" + url.QueryEscape(email)
	var out []identityPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	identity := toIdentity(out[0])
	return &identity, nil
}

// DeleteIdentity removes the identity. A 404 maps to
// accounts.ErrIdentityNotFound so callers can treat it as already gone.
func (c *Client) DeleteIdentity(ctx context.Context, providerID string) error {
	return c.do(ctx, http.MethodDelete, "/identities/"+url.PathEscape(providerID), nil, nil)
}

// UpdateRole replaces the role metadata on an existing identity.
func (c *Client) UpdateRole(ctx context.Context, providerID string, role accounts.Role) error {
	payload := map[string]string{"role": string(role)}
	return c.do(ctx, http.MethodPatch, "/identities/"+url.PathEscape(providerID), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return accounts.ErrIdentityNotFound
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("directory returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toIdentity(p identityPayload) accounts.Identity {
	return accounts.Identity{
		ProviderID:  p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        accounts.Role(p.Role),
	}
}
