package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const graphQLEndpoint = "https://api.github.com/graphql"

// GraphQLClient covers the profile data the REST API does not expose.
// Pinned items are GraphQL-only.
type GraphQLClient struct {
	httpClient *http.Client
	token      string
	endpoint   string
}

// NewGraphQLClient creates a GraphQL client with the given token.
func NewGraphQLClient(httpClient *http.Client, token string) *GraphQLClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{
		httpClient: httpClient,
		token:      token,
		endpoint:   graphQLEndpoint,
	}
}

// graphQLRequest represents a GraphQL request payload.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse represents a GraphQL response.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// execute sends a GraphQL query and returns the response data.
func (c *GraphQLClient) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphQLRequest{
		Query:     query,
		Variables: variables,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Truncate response body to avoid leaking sensitive data in logs
		truncated := string(respBody)
		if len(truncated) > 200 {
			truncated = truncated[:200] + "..."
		}
		return nil, fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, truncated)
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}

// CountPinnedItems fetches how many items (repos, gists) the user has pinned
// on their profile.
func (c *GraphQLClient) CountPinnedItems(ctx context.Context, login string) (int, error) {
	query := `
		query($login: String!) {
			user(login: $login) {
				pinnedItems(first: 6) {
					totalCount
				}
			}
		}
	`
	variables := map[string]any{
		"login": login,
	}

	data, err := c.execute(ctx, query, variables)
	if err != nil {
		return 0, err
	}

	var result struct {
		User *struct {
			PinnedItems struct {
				TotalCount int `json:"totalCount"`
			} `json:"pinnedItems"`
		} `json:"user"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return 0, fmt.Errorf("failed to parse pinned items: %w", err)
	}

	if result.User == nil {
		return 0, fmt.Errorf("user not found: %s", login)
	}

	return result.User.PinnedItems.TotalCount, nil
}
