package client

import (
	"context"
	"fmt"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// OneClickClient wraps the 1Click SDK
type OneClickClient struct {
	client   *oneclick.APIClient
	jwtToken string
}

// TokenPrice is the USD price the 1Click API reports for a token
type TokenPrice struct {
	Symbol     string
	Blockchain string
	Price      float64
}

// NewOneClickClient creates a new 1Click API client
func NewOneClickClient(jwtToken string) *OneClickClient {
	config := oneclick.NewConfiguration()

	return &OneClickClient{
		client:   oneclick.NewAPIClient(config),
		jwtToken: jwtToken,
	}
}

// authContext attaches the JWT to a request context
func (c *OneClickClient) authContext(ctx context.Context) context.Context {
	if c.jwtToken == "" {
		return ctx
	}
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.jwtToken)
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authContext(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// TokenPrices lists the USD price of every supported token
func (c *OneClickClient) TokenPrices(ctx context.Context) ([]TokenPrice, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	prices := make([]TokenPrice, 0, len(tokens))
	for _, token := range tokens {
		prices = append(prices, TokenPrice{
			Symbol:     token.GetSymbol(),
			Blockchain: token.GetBlockchain(),
			Price:      float64(token.GetPrice()),
		})
	}
	return prices, nil
}
