package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/models"
)

// Client talks to the Shopify Admin REST API. It implements
// interfaces.PlatformClient.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
}

// NewClient creates a new Shopify Admin API client
func NewClient(shopDomain, accessToken, apiVersion string) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

const catalogPageSize = 250

type productsResponse struct {
	Products []struct {
		Variants []struct {
			SKU             string `json:"sku"`
			InventoryItemID int64  `json:"inventory_item_id"`
		} `json:"variants"`
	} `json:"products"`
}

type inventoryLevelsResponse struct {
	InventoryLevels []struct {
		InventoryItemID int64 `json:"inventory_item_id"`
		LocationID      int64 `json:"location_id"`
		Available       *int  `json:"available"`
	} `json:"inventory_levels"`
}

// ListCatalogPage fetches one page of the product listing. Pagination follows
// the Link response header; the returned next URL is empty on the last page.
func (c *Client) ListCatalogPage(ctx context.Context, pageURL string) ([]models.Variant, string, error) {
	if pageURL == "" {
		pageURL = c.endpoint("products.json") + "?limit=" + strconv.Itoa(catalogPageSize) + "&fields=id,variants"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build products request: %w", err)
	}

	var body productsResponse
	header, err := c.do(req, &body)
	if err != nil {
		return nil, "", fmt.Errorf("list products: %w", err)
	}

	var variants []models.Variant
	for _, product := range body.Products {
		for _, v := range product.Variants {
			variants = append(variants, models.Variant{
				SKU:             v.SKU,
				InventoryItemID: v.InventoryItemID,
			})
		}
	}

	return variants, nextPageURL(header.Get("Link")), nil
}

// ReadLevel returns the available quantity for one item at one location.
// The bool is false when the platform has no level for the pair.
func (c *Client) ReadLevel(ctx context.Context, inventoryItemID, locationID int64) (int, bool, error) {
	query := url.Values{}
	query.Set("inventory_item_ids", strconv.FormatInt(inventoryItemID, 10))
	query.Set("location_ids", strconv.FormatInt(locationID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("inventory_levels.json")+"?"+query.Encode(), nil)
	if err != nil {
		return 0, false, fmt.Errorf("build inventory levels request: %w", err)
	}

	var body inventoryLevelsResponse
	if _, err := c.do(req, &body); err != nil {
		return 0, false, fmt.Errorf("read inventory level: %w", err)
	}

	for _, level := range body.InventoryLevels {
		if level.InventoryItemID == inventoryItemID && level.LocationID == locationID {
			if level.Available == nil {
				// Untracked items report a null level.
				return 0, false, nil
			}
			return *level.Available, true, nil
		}
	}

	return 0, false, nil
}

// WriteLevel sets the available quantity for one item at one location.
func (c *Client) WriteLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	payload, err := json.Marshal(map[string]interface{}{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
		"available":         available,
	})
	if err != nil {
		return fmt.Errorf("marshal inventory level payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("inventory_levels/set.json"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build inventory set request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req, nil); err != nil {
		return fmt.Errorf("set inventory level: %w", err)
	}

	return nil
}

// do executes a request with auth headers and decodes the JSON response.
// A 429 is retried once after the Retry-After hint.
func (c *Client) do(req *http.Request, out interface{}) (http.Header, error) {
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		delay := retryAfter(resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn().
			Str("path", req.URL.Path).
			Dur("retry_after", delay).
			Msg("Platform rate limit hit, retrying once")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		resp, err = c.send(req)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("platform returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode platform response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp.Header, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	// Requests may be re-sent after a 429, so rebuild the body each time.
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		req.Body = body
	}
	return c.httpClient.Do(req)
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("https://%s/admin/api/%s/%s", c.shopDomain, c.apiVersion, path)
}

func retryAfter(header string) time.Duration {
	if seconds, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return 2 * time.Second
}

// nextPageURL extracts the rel="next" target from a Link header.
func nextPageURL(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
