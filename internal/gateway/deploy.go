package gateway

import (
	"context"
	"fmt"

	platformhttp "github.com/ndefokin/botarmy/internal/platform/http"
	"github.com/ndefokin/botarmy/models"
)

// HTTPDeployer pushes top-tier agents to external execution hosts over HTTP
type HTTPDeployer struct {
	client  *platformhttp.Client
	baseURL string
}

// NewHTTPDeployer creates a deployer for the given host
func NewHTTPDeployer(baseURL, authToken string) *HTTPDeployer {
	return &HTTPDeployer{
		client: platformhttp.NewClient(platformhttp.ClientOptions{
			AuthToken: authToken,
		}),
		baseURL: baseURL,
	}
}

type deployResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// DeployAgent ships one agent to the execution host
func (d *HTTPDeployer) DeployAgent(ctx context.Context, a *models.Agent) (bool, error) {
	var resp deployResponse
	if err := d.client.PostJSON(ctx, d.baseURL+"/agents/deploy", a, &resp); err != nil {
		return false, fmt.Errorf("deploy agent %s: %w", a.ID, err)
	}
	return resp.Accepted, nil
}

// PushConfig updates a deployed agent's runtime configuration
func (d *HTTPDeployer) PushConfig(ctx context.Context, agentID string, config map[string]string) (bool, error) {
	payload := struct {
		AgentID string            `json:"agent_id"`
		Config  map[string]string `json:"config"`
	}{agentID, config}

	var resp deployResponse
	if err := d.client.PostJSON(ctx, d.baseURL+"/agents/config", payload, &resp); err != nil {
		return false, fmt.Errorf("push config for agent %s: %w", agentID, err)
	}
	return resp.Accepted, nil
}
