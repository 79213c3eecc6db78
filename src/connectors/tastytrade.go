package connectors

// REST client for the tastytrade customer API. Session-token login with an
// optional OAuth bearer path, resty with internal retry.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	userAgent = "tastytracker/1.0"

	defaultRetryAttempts   = 4
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// ErrNotAuthenticated is returned by data calls made before a successful
// Login or OAuth refresh.
var ErrNotAuthenticated = errors.New("tastytrade session not authenticated")

// -----------------------------
// WIRE TYPES
// -----------------------------

type sessionResponse struct {
	Data struct {
		SessionToken string `json:"session-token"`
		User         struct {
			Email      string `json:"email"`
			Username   string `json:"username"`
			ExternalID string `json:"external-id"`
		} `json:"user"`
	} `json:"data"`
}

type oauthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type accountsResponse struct {
	Data struct {
		Items []struct {
			Account struct {
				AccountNumber string `json:"account-number"`
				Nickname      string `json:"nickname"`
			} `json:"account"`
		} `json:"items"`
	} `json:"data"`
}

// PositionItem is one open position as reported by the broker.
type PositionItem struct {
	Symbol           string `json:"symbol"`
	InstrumentType   string `json:"instrument-type"`
	Quantity         string `json:"quantity"`
	QuantityDirecton string `json:"quantity-direction"`
	AverageOpenPrice string `json:"average-open-price"`
	ClosePrice       string `json:"close-price"`
	Multiplier       int    `json:"multiplier"`
	ExpirationDate   string `json:"expiration-date"`
}

type positionsResponse struct {
	Data struct {
		Items []PositionItem `json:"items"`
	} `json:"data"`
}

// TransactionItem is one raw ledger entry as reported by the broker.
// Numeric fields arrive as strings; mapper.MapTransactionItem normalizes
// them.
type TransactionItem struct {
	ID              int64  `json:"id"`
	TransactionType string `json:"transaction-type"`
	Symbol          string `json:"symbol"`
	Description     string `json:"description"`
	InstrumentType  string `json:"instrument-type"`
	Quantity        string `json:"quantity"`
	Price           string `json:"price"`
	NetValue        string `json:"net-value"`
	StrikePrice     string `json:"strike-price"`
	PutCall         string `json:"put-call"`
	ExpirationDate  string `json:"expiration-date"`
	TransactionDate string `json:"transaction-date"`
	ExecutedAt      string `json:"executed-at"`
}

type transactionsResponse struct {
	Data struct {
		Items []TransactionItem `json:"items"`
	} `json:"data"`
}

// -----------------------------
// CLIENT
// -----------------------------

// TokenUpdate carries refreshed OAuth tokens back to the caller so they can
// be re-sealed and persisted on the credential.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type TastyTradeClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	sessionToken string
	bearerToken  string
	http         *resty.Client
}

// NewTastyTradeClient builds a client for one environment. baseURL empty
// means production.
func NewTastyTradeClient(baseURL, clientID, clientSecret string) *TastyTradeClient {
	cfg := GetConfig()
	if strings.TrimSpace(baseURL) == "" {
		baseURL = cfg.ProdBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &TastyTradeClient{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
	}
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
}

// Login opens a session with username/password credentials. The session
// token is sent verbatim in the Authorization header, without a Bearer
// prefix, per the broker's docs.
func (c *TastyTradeClient) Login(username, password string) error {
	var out sessionResponse

	resp, err := c.http.R().
		SetBody(map[string]string{
			"login":    strings.TrimSpace(username),
			"password": strings.TrimSpace(password),
		}).
		SetResult(&out).
		Post("/sessions")
	if err != nil {
		return fmt.Errorf("tastytrade login request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("tastytrade login failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.sessionToken = out.Data.SessionToken
	c.bearerToken = ""
	c.http.SetHeader("Authorization", c.sessionToken)

	logger.WithFields(map[string]interface{}{
		"connector": "tastytrade",
		"username":  out.Data.User.Username,
	}).Info("Session established")

	return nil
}

// RefreshAccessToken exchanges a refresh token for a fresh access token and
// installs it as a bearer. The returned update must be persisted by the
// caller.
func (c *TastyTradeClient) RefreshAccessToken(refreshToken string) (*TokenUpdate, error) {
	var out oauthTokenResponse

	resp, err := c.http.R().
		SetBody(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		SetResult(&out).
		Post("/oauth/token")
	if err != nil {
		return nil, fmt.Errorf("oauth token refresh request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("oauth token refresh failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	update := &TokenUpdate{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
	if update.RefreshToken == "" {
		update.RefreshToken = refreshToken
	}

	expiresIn := out.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 900 // broker default, 15 minutes
	}
	update.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	c.UseBearerToken(update.AccessToken)

	logger.WithField("connector", "tastytrade").Info("OAuth token refreshed")

	return update, nil
}

// SessionToken exposes the current session token. The account streamer
// authenticates with it; OAuth bearers are not accepted there.
func (c *TastyTradeClient) SessionToken() string {
	return c.sessionToken
}

// UseBearerToken installs an existing OAuth access token.
func (c *TastyTradeClient) UseBearerToken(accessToken string) {
	c.bearerToken = accessToken
	c.sessionToken = ""
	c.http.SetHeader("Authorization", "Bearer "+accessToken)
}

// TestSession verifies the current authentication by hitting the accounts
// endpoint.
func (c *TastyTradeClient) TestSession() bool {
	if !c.authenticated() {
		return false
	}

	resp, err := c.http.R().Get("/customers/me/accounts")
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

// FetchAccounts lists the account numbers visible to the session.
func (c *TastyTradeClient) FetchAccounts() ([]string, error) {
	if !c.authenticated() {
		return nil, ErrNotAuthenticated
	}

	var out accountsResponse
	resp, err := c.http.R().
		SetResult(&out).
		Get("/customers/me/accounts")
	if err != nil {
		return nil, fmt.Errorf("fetch accounts request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch accounts failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	accounts := make([]string, 0, len(out.Data.Items))
	for _, item := range out.Data.Items {
		if item.Account.AccountNumber != "" {
			accounts = append(accounts, item.Account.AccountNumber)
		}
	}

	return accounts, nil
}

// FetchPositions lists open positions for one account.
func (c *TastyTradeClient) FetchPositions(accountNumber string) ([]PositionItem, error) {
	if !c.authenticated() {
		return nil, ErrNotAuthenticated
	}

	var out positionsResponse
	resp, err := c.http.R().
		SetResult(&out).
		Get(fmt.Sprintf("/accounts/%s/positions", accountNumber))
	if err != nil {
		return nil, fmt.Errorf("fetch positions request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch positions failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	return out.Data.Items, nil
}

// FetchTransactions lists ledger entries for one account, optionally from a
// start date onwards.
func (c *TastyTradeClient) FetchTransactions(accountNumber string, startDate *time.Time) ([]TransactionItem, error) {
	if !c.authenticated() {
		return nil, ErrNotAuthenticated
	}

	req := c.http.R()
	if startDate != nil {
		req.SetQueryParam("start-date", startDate.Format("2006-01-02"))
	}

	var out transactionsResponse
	resp, err := req.
		SetResult(&out).
		Get(fmt.Sprintf("/accounts/%s/transactions", accountNumber))
	if err != nil {
		return nil, fmt.Errorf("fetch transactions request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch transactions failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	logger.WithFields(map[string]interface{}{
		"connector": "tastytrade",
		"account":   accountNumber,
		"count":     len(out.Data.Items),
	}).Debug("Transactions fetched")

	return out.Data.Items, nil
}

func (c *TastyTradeClient) authenticated() bool {
	return c.sessionToken != "" || c.bearerToken != ""
}
