// Package client provides a Go client for the Petmint API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is a Petmint API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new Petmint client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Pet represents a pet record
type Pet struct {
	ID        string `json:"id"`
	Upper     string `json:"upper"`
	Face      string `json:"face"`
	Down      string `json:"down"`
	Color     string `json:"color"`
	Owner     string `json:"owner"`
	ForSale   bool   `json:"forSale"`
	Price     string `json:"price"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CreatePetRequest mints a new pet
type CreatePetRequest struct {
	Owner  string `json:"owner"`
	TxHash string `json:"txHash,omitempty"`
}

// MergePetsRequest fuses two pets into one
type MergePetsRequest struct {
	Owner  string `json:"owner"`
	PetID1 string `json:"petId1"`
	PetID2 string `json:"petId2"`
}

// DeletePetRequest retires a pet
type DeletePetRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
}

// ListForSaleRequest puts a pet on the market
type ListForSaleRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
	Price string `json:"price"`
}

// BuyRequest settles a purchase
type BuyRequest struct {
	Buyer  string `json:"buyer"`
	PetID  string `json:"petId"`
	TxHash string `json:"txHash"`
}

// DelistRequest withdraws a pet from the market
type DelistRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ListPets lists every pet
func (c *Client) ListPets(ctx context.Context) ([]Pet, error) {
	var pets []Pet
	if err := c.get(ctx, "/api/v1/pets", &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// GetPet gets one pet by id
func (c *Client) GetPet(ctx context.Context, id string) (*Pet, error) {
	var pet Pet
	if err := c.get(ctx, "/api/v1/pets/"+url.PathEscape(id), &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// PetsByOwner lists the pets held by one account
func (c *Client) PetsByOwner(ctx context.Context, owner string) ([]Pet, error) {
	var pets []Pet
	if err := c.get(ctx, "/api/v1/pets/owner/"+url.PathEscape(owner), &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// CreatePet mints a new pet
func (c *Client) CreatePet(ctx context.Context, req CreatePetRequest) (*Pet, error) {
	var pet Pet
	if err := c.post(ctx, "/api/v1/pets", req, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// MergePets fuses two pets into a hybrid
func (c *Client) MergePets(ctx context.Context, req MergePetsRequest) (*Pet, error) {
	var pet Pet
	if err := c.post(ctx, "/api/v1/pets/merge", req, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// DeletePet retires a pet
func (c *Client) DeletePet(ctx context.Context, req DeletePetRequest) error {
	return c.post(ctx, "/api/v1/pets/delete", req, nil)
}

// Market lists the pets currently for sale
func (c *Client) Market(ctx context.Context) ([]Pet, error) {
	var pets []Pet
	if err := c.get(ctx, "/api/v1/market", &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// ListForSale puts a pet on the market
func (c *Client) ListForSale(ctx context.Context, req ListForSaleRequest) (*Pet, error) {
	var pet Pet
	if err := c.post(ctx, "/api/v1/market/list", req, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// Buy settles a purchase against a payment transaction
func (c *Client) Buy(ctx context.Context, req BuyRequest) (*Pet, error) {
	var pet Pet
	if err := c.post(ctx, "/api/v1/market/buy", req, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// Delist withdraws a pet from the market
func (c *Client) Delist(ctx context.Context, req DelistRequest) (*Pet, error) {
	var pet Pet
	if err := c.post(ctx, "/api/v1/market/remove", req, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return &errResp.Error
}
