// Package api implements the marketplace REST client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lwgren/loppis/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client talks to the marketplace backend over HTTP and implements
// domain.MarketClient. All errors it returns are either domain sentinels
// (ErrServerOffline, ErrAuthFailed, ErrNotFound) or *domain.Failure.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a marketplace API client.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// SetToken replaces the session token used for subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return nil, domain.NetworkFailure(fmt.Errorf("%w: %w", domain.ErrServerOffline, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NetworkFailure(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, c.statusError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) statusError(method, path string, status int, body []byte) error {
	var dto errorDTO
	_ = json.Unmarshal(body, &dto)
	code := dto.Error.Code
	message := dto.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	c.logger.Warn("request rejected",
		"method", method, "path", path, "status", status, "code", code)

	switch status {
	case http.StatusUnauthorized:
		return domain.ErrAuthFailed
	case http.StatusNotFound:
		return domain.StatusFailure(status, code, domain.ErrNotFound)
	}
	return domain.StatusFailure(status, code, fmt.Errorf("server rejected request: %s", message))
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.NetworkFailure(fmt.Errorf("decoding %s response: %w", path, err))
	}
	return nil
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var dto userDTO
	if err := c.getJSON(ctx, "/me", nil, &dto); err != nil {
		return nil, err
	}
	return mapUser(dto), nil
}

// GetProducts returns one page of the home feed.
func (c *Client) GetProducts(ctx context.Context, page, limit int) (domain.Page[*domain.Product], error) {
	var dto productsPageDTO
	if err := c.getJSON(ctx, "/products", pageQuery(page, limit), &dto); err != nil {
		return domain.Page[*domain.Product]{}, err
	}
	return mapProductsPage(dto), nil
}

// GetProduct returns detailed data for a single listing.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var dto productDTO
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(productID), nil, &dto); err != nil {
		return nil, err
	}
	return mapProduct(dto), nil
}

// GetLikedProducts returns one page of the logged-in user's liked listings.
func (c *Client) GetLikedProducts(ctx context.Context, page, limit int) (domain.Page[*domain.Product], error) {
	var dto productsPageDTO
	if err := c.getJSON(ctx, "/me/liked-products", pageQuery(page, limit), &dto); err != nil {
		return domain.Page[*domain.Product]{}, err
	}
	return mapProductsPage(dto), nil
}

// GetLikedProfiles returns one page of the logged-in user's liked sellers.
func (c *Client) GetLikedProfiles(ctx context.Context, page, limit int) (domain.Page[*domain.User], error) {
	var dto usersPageDTO
	if err := c.getJSON(ctx, "/me/liked-profiles", pageQuery(page, limit), &dto); err != nil {
		return domain.Page[*domain.User]{}, err
	}
	return mapUsersPage(dto), nil
}

// GetRecentSearches returns the user's recent search terms, newest first.
func (c *Client) GetRecentSearches(ctx context.Context, limit int) ([]string, error) {
	var dto searchesDTO
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/me/searches", query, &dto); err != nil {
		return nil, err
	}
	return dto.Terms, nil
}

// GetActivities returns one page of the activity feed, newest first.
func (c *Client) GetActivities(ctx context.Context, page, limit int) (domain.Page[*domain.Activity], error) {
	var dto activitiesPageDTO
	if err := c.getJSON(ctx, "/activities", pageQuery(page, limit), &dto); err != nil {
		return domain.Page[*domain.Activity]{}, err
	}
	return mapActivitiesPage(dto), nil
}

// ToggleProductLike flips the like relation for a listing.
func (c *Client) ToggleProductLike(ctx context.Context, productID string) (domain.LikeResult, error) {
	return c.toggleLike(ctx, "/products/"+url.PathEscape(productID)+"/like")
}

// ToggleUserLike flips the like relation for a profile.
func (c *Client) ToggleUserLike(ctx context.Context, userID string) (domain.LikeResult, error) {
	return c.toggleLike(ctx, "/users/"+url.PathEscape(userID)+"/like")
}

func (c *Client) toggleLike(ctx context.Context, path string) (domain.LikeResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return domain.LikeResult{}, err
	}
	var dto likeResultDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.LikeResult{}, domain.NetworkFailure(fmt.Errorf("decoding like response: %w", err))
	}
	return domain.LikeResult{Liked: dto.Liked, LikeCount: dto.LikeCount}, nil
}

// MarkActivityRead marks a single activity as read.
func (c *Client) MarkActivityRead(ctx context.Context, activityID string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/activities/"+url.PathEscape(activityID)+"/read", nil, nil)
	return err
}

// MarkAllActivitiesRead marks every activity as read.
func (c *Client) MarkAllActivitiesRead(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/activities/read-all", nil, nil)
	return err
}

// AcceptPurchaseRequest accepts the pending purchase request.
func (c *Client) AcceptPurchaseRequest(ctx context.Context, productID string) error {
	return c.requestAction(ctx, productID, "accept")
}

// DeclinePurchaseRequest declines the pending purchase request.
func (c *Client) DeclinePurchaseRequest(ctx context.Context, productID string) error {
	return c.requestAction(ctx, productID, "decline")
}

// CancelPurchaseRequest withdraws the pending purchase request.
func (c *Client) CancelPurchaseRequest(ctx context.Context, productID string) error {
	return c.requestAction(ctx, productID, "cancel")
}

func (c *Client) requestAction(ctx context.Context, productID, action string) error {
	path := "/products/" + url.PathEscape(productID) + "/purchase-request/" + action
	_, err := c.doRequest(ctx, http.MethodPost, path, nil, nil)
	return err
}

// CreateReview records a review for a completed trade.
func (c *Client) CreateReview(ctx context.Context, input domain.ReviewInput) error {
	body := map[string]any{
		"revieweeId": input.RevieweeID,
		"productId":  input.ProductID,
		"rating":     input.Rating,
		"comment":    input.Comment,
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/reviews", nil, body)
	return err
}

// GetUnseenActivityCount returns the number of unseen activities.
func (c *Client) GetUnseenActivityCount(ctx context.Context) (int, error) {
	var dto countDTO
	if err := c.getJSON(ctx, "/activities/unseen-count", nil, &dto); err != nil {
		return 0, err
	}
	return dto.Count, nil
}

// GetUnreadChatCount returns the number of chats with unread messages.
func (c *Client) GetUnreadChatCount(ctx context.Context) (int, error) {
	var dto countDTO
	if err := c.getJSON(ctx, "/chats/unread-count", nil, &dto); err != nil {
		return 0, err
	}
	return dto.Count, nil
}

var _ domain.MarketClient = (*Client)(nil)
