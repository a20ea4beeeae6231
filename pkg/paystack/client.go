package paystack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parklink/booking-backend/internal/models"
)

// Client talks to the Paystack REST API. The secret key is a bearer
// credential and is never included in responses or logs.
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	client      *http.Client
}

// Config holds Paystack client configuration
type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
}

// NewClient creates a new Paystack client
func NewClient(config Config) *Client {
	return &Client{
		baseURL:     config.BaseURL,
		secretKey:   config.SecretKey,
		callbackURL: config.CallbackURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// InitializeRequest is the transaction initialization payload. Amount is
// in the currency's minor unit (kobo).
type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// InitializeResponse is the transaction initialization response
type InitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// VerifyResponse is the transaction verification response
type VerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string `json:"status"` // success, failed, abandoned
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		GatewayResponse string `json:"gateway_response"`
	} `json:"data"`
}

// Transaction is the outcome of a successful initialization
type Transaction struct {
	Reference        string
	AuthorizationURL string
}

// Initialize starts a transaction for the given email and amount in the
// major currency unit. Failures before the gateway accepts the charge are
// transient and safe to retry.
func (c *Client) Initialize(email string, amount float64) (*Transaction, error) {
	body := InitializeRequest{
		Email:       email,
		Amount:      int64(amount * 100),
		CallbackURL: c.callbackURL,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create initialize request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &models.GatewayError{Transient: true, Message: fmt.Sprintf("payment gateway unreachable: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{Transient: true, Message: "failed to read gateway response"}
	}

	if resp.StatusCode >= 500 {
		return nil, &models.GatewayError{Transient: true, Message: fmt.Sprintf("payment gateway error: %d", resp.StatusCode)}
	}

	var initResp InitializeResponse
	if err := json.Unmarshal(respBody, &initResp); err != nil {
		return nil, &models.GatewayError{Transient: true, Message: "failed to parse gateway response"}
	}

	if !initResp.Status {
		return nil, &models.GatewayError{Transient: false, Message: fmt.Sprintf("payment initialization rejected: %s", initResp.Message)}
	}

	return &Transaction{
		Reference:        initResp.Data.Reference,
		AuthorizationURL: initResp.Data.AuthorizationURL,
	}, nil
}

// Verify checks the status of a transaction by reference. It returns
// whether the charge succeeded; network and 5xx failures come back as
// transient gateway errors so the caller can retry without side effects.
func (c *Client) Verify(reference string) (bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create verify request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, &models.GatewayError{Transient: true, Message: fmt.Sprintf("payment gateway unreachable: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &models.GatewayError{Transient: true, Message: "failed to read gateway response"}
	}

	if resp.StatusCode >= 500 {
		return false, &models.GatewayError{Transient: true, Message: fmt.Sprintf("payment gateway error: %d", resp.StatusCode)}
	}

	var verifyResp VerifyResponse
	if err := json.Unmarshal(respBody, &verifyResp); err != nil {
		return false, &models.GatewayError{Transient: true, Message: "failed to parse gateway response"}
	}

	if !verifyResp.Status {
		return false, &models.GatewayError{Transient: false, Message: fmt.Sprintf("payment verification rejected: %s", verifyResp.Message)}
	}

	return verifyResp.Data.Status == "success", nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
}
