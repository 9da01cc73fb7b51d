package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"prospectflow/config"
)

const (
	apiBase = "https://gmail.googleapis.com/gmail/v1/users/me"

	// Listing is capped per poll; overlap across runs is handled by the
	// ingestion guard, not by pagination.
	maxResults = 50
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Source is the mailbox surface consumed by the mail-check pipeline.
type Source interface {
	ListCandidateMessages(ctx context.Context, since time.Time) ([]MessageRef, error)
	FetchFullMessage(ctx context.Context, id string) (*Message, error)
	MarkRead(ctx context.Context, id string) error
}

// Client talks to the Gmail REST API with a refresh-token credential.
type Client struct {
	oauthCfg *oauth2.Config
	http     *http.Client
}

func NewClient(cfg config.GmailConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("gmail credentials not configured")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     googleEndpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.modify"},
	}

	c := &Client{oauthCfg: oauthCfg}
	if cfg.RefreshToken != "" {
		src := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
		c.http = oauth2.NewClient(context.Background(), src)
	}
	return c, nil
}

// ListCandidateMessages lists unread inbox messages received after the
// cutoff, at most maxResults per poll.
func (c *Client) ListCandidateMessages(ctx context.Context, since time.Time) ([]MessageRef, error) {
	query := "is:unread in:inbox"
	if !since.IsZero() {
		query += fmt.Sprintf(" after:%d", since.Unix())
	}

	u := fmt.Sprintf("%s/messages?q=%s&maxResults=%d", apiBase, url.QueryEscape(query), maxResults)

	var out struct {
		Messages []MessageRef `json:"messages"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out.Messages, nil
}

// FetchFullMessage retrieves headers and the full payload tree.
func (c *Client) FetchFullMessage(ctx context.Context, id string) (*Message, error) {
	u := fmt.Sprintf("%s/messages/%s?format=full", apiBase, url.PathEscape(id))

	var msg Message
	if err := c.getJSON(ctx, u, &msg); err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", id, err)
	}
	return &msg, nil
}

// MarkRead removes the UNREAD label. Callers treat failure as
// non-fatal.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	u := fmt.Sprintf("%s/messages/%s/modify", apiBase, url.PathEscape(id))
	body := strings.NewReader(`{"removeLabelIds":["UNREAD"]}`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark read %s: unexpected status %d", id, resp.StatusCode)
	}
	return nil
}

// ExchangeCode trades an authorization code for a refresh token.
// Operator tooling behind the OAuth callback endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	tok, err := c.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("token response carried no refresh token")
	}
	return tok.RefreshToken, nil
}

// AuthURL returns the consent URL for the operator flow.
func (c *Client) AuthURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *Client) httpClient() *http.Client {
	if c.http != nil {
		return c.http
	}
	return http.DefaultClient
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
