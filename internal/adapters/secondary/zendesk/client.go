package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

const (
	// maxUsersPerLookup bounds how many matching requesters are expanded
	// into their ticket lists for one phone lookup.
	maxUsersPerLookup = 5

	maxErrorBodyBytes = 4096
)

// Config holds the Zendesk REST API settings.
type Config struct {
	// BaseURL wins over Subdomain when set.
	BaseURL    string
	Subdomain  string
	Email      string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the Zendesk Support REST API with an API token.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	http       *http.Client
	maxRetries int
	logger     *slog.Logger
}

var _ ports.HelpdeskClient = (*Client)(nil)

// NewClient creates a Zendesk client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.Subdomain == "" {
			return nil, errors.New("zendesk: subdomain or base URL is required")
		}
		base = "https://" + cfg.Subdomain + ".zendesk.com"
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("zendesk: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    base,
		username:   cfg.Email + "/token",
		apiToken:   cfg.APIToken,
		http:       &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		logger:     logger.With("component", "zendesk_client"),
	}, nil
}

// --- Wire types ---

type apiUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type usersResponse struct {
	Users []apiUser `json:"users"`
}

type apiTicket struct {
	ID       int64  `json:"id"`
	Subject  string `json:"subject"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type ticketsResponse struct {
	Tickets []apiTicket `json:"tickets"`
}

type ticketResponse struct {
	Ticket apiTicket `json:"ticket"`
}

type apiComment struct {
	Body   string `json:"body"`
	Public bool   `json:"public"`
}

type apiRequester struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type ticketUpdate struct {
	Comment apiComment `json:"comment"`
}

type ticketCreate struct {
	Subject   string        `json:"subject"`
	Comment   *apiComment   `json:"comment,omitempty"`
	Priority  string        `json:"priority,omitempty"`
	Requester *apiRequester `json:"requester,omitempty"`
}

type apiError struct {
	Error       json.RawMessage `json:"error"`
	Description string          `json:"description"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("zendesk returned %d", e.StatusCode)
	}
	return fmt.Sprintf("zendesk returned %d: %s", e.StatusCode, e.Message)
}

func toDomainTicket(t apiTicket) domain.Ticket {
	return domain.Ticket{
		ID:       t.ID,
		Subject:  t.Subject,
		Status:   domain.ParseTicketStatus(t.Status),
		Priority: domain.ParseTicketPriority(t.Priority),
	}
}

// --- HelpdeskClient ---

// FetchTicketsByPhone finds the users whose phone matches and returns the
// tickets they requested, most recently updated first. The lookup is
// idempotent and retried with exponential backoff. A response the API
// rejects is reported as a failed lookup rather than an error.
func (c *Client) FetchTicketsByPhone(ctx context.Context, phone string) (domain.TicketLookup, error) {
	var users usersResponse
	query := url.Values{"query": {"phone:" + phone}}
	if err := c.getWithRetry(ctx, "/api/v2/users/search.json?"+query.Encode(), &users); err != nil {
		return lookupFailure(err)
	}

	tickets := make([]domain.Ticket, 0)
	seen := make(map[int64]bool)
	for i, user := range users.Users {
		if i == maxUsersPerLookup {
			c.logger.Debug("phone matched more users than expanded",
				"matched", len(users.Users),
				"expanded", maxUsersPerLookup,
			)
			break
		}

		var requested ticketsResponse
		path := "/api/v2/users/" + strconv.FormatInt(user.ID, 10) + "/tickets/requested.json?sort_by=updated_at&sort_order=desc"
		if err := c.getWithRetry(ctx, path, &requested); err != nil {
			return lookupFailure(err)
		}
		for _, t := range requested.Tickets {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tickets = append(tickets, toDomainTicket(t))
		}
	}

	return domain.TicketLookup{OK: true, Tickets: tickets}, nil
}

func lookupFailure(err error) (domain.TicketLookup, error) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return domain.TicketLookup{OK: false, Error: statusErr.Error()}, nil
	}
	return domain.TicketLookup{}, err
}

// AddPrivateNote adds an internal comment to the ticket. Not retried.
func (c *Client) AddPrivateNote(ctx context.Context, ticketID int64, body string) error {
	payload := map[string]ticketUpdate{
		"ticket": {Comment: apiComment{Body: body, Public: false}},
	}

	path := "/api/v2/tickets/" + strconv.FormatInt(ticketID, 10) + ".json"
	err := c.do(ctx, http.MethodPut, path, payload, nil)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", apperrors.ErrTicketNotFound, err)
	}
	return err
}

// CreateTicket opens a ticket for the caller. Not retried.
func (c *Client) CreateTicket(ctx context.Context, params domain.NewTicketParams) (domain.Ticket, error) {
	create := ticketCreate{
		Subject:  params.Subject,
		Priority: zendeskPriority(params.Priority),
	}
	if params.Description != "" {
		create.Comment = &apiComment{Body: params.Description, Public: true}
	}
	if params.RequesterPhone != "" || params.RequesterName != "" {
		name := params.RequesterName
		if name == "" {
			name = params.RequesterPhone
		}
		create.Requester = &apiRequester{Name: name, Phone: params.RequesterPhone}
	}

	var created ticketResponse
	if err := c.do(ctx, http.MethodPost, "/api/v2/tickets.json", map[string]ticketCreate{"ticket": create}, &created); err != nil {
		return domain.Ticket{}, err
	}
	return toDomainTicket(created.Ticket), nil
}

// zendeskPriority maps to the API vocabulary, where "normal" is the default
// and "medium" does not exist.
func zendeskPriority(p domain.TicketPriority) string {
	switch p {
	case domain.PriorityHigh:
		return "high"
	case domain.PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// --- Transport ---

func (c *Client) getWithRetry(ctx context.Context, path string, out any) error {
	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode != http.StatusTooManyRequests && statusErr.StatusCode < 500 {
			// Permanent: don't retry on client errors
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.logger.Warn("zendesk request failed, retrying", "path", path, "error", err)
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(max(c.maxRetries, 0))),
		ctx,
	)
	return backoff.Retry(op, b)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("zendesk: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("zendesk: build request: %w", err)
	}
	// API token auth: "{email}/token:{api_token}"
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zendesk: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readAPIError(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zendesk: decode response: %w", err)
	}
	return nil
}

// readAPIError extracts the human readable part of an error body. Zendesk
// sends "error" either as a string or as an object with a message.
func readAPIError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return ""
	}

	var parsed apiError
	if err := json.Unmarshal(data, &parsed); err != nil {
		return strings.TrimSpace(string(data))
	}
	if parsed.Description != "" {
		return parsed.Description
	}

	var text string
	if err := json.Unmarshal(parsed.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(parsed.Error, &nested); err == nil {
		if nested.Message != "" {
			return nested.Message
		}
		return nested.Title
	}
	return ""
}
