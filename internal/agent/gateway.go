package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// GatewayAgent talks to canisters through an HTTP JSON boundary gateway.
// Updates POST to /api/v1/canister/{id}/call/{method}, queries to
// /api/v1/canister/{id}/query/{method}; the body is the request payload and
// the response body is returned verbatim.
type GatewayAgent struct {
	baseURL string
	client  *http.Client
}

func NewGatewayAgent(baseURL string) *GatewayAgent {
	return &GatewayAgent{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *GatewayAgent) Call(ctx context.Context, canisterID types.Principal, req Request) ([]byte, error) {
	log := logger.GetForComponent("gateway_agent")

	payload, err := req.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", req.Method(), err)
	}

	kind := "query"
	if req.Update() {
		kind = "call"
	}
	url := fmt.Sprintf("%s/api/v1/canister/%s/%s/%s", g.baseURL, canisterID, kind, req.Method())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("canister_id", canisterID.String()).
		Str("method", req.Method()).
		Bool("update", req.Update()).
		Msg("Calling canister")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call to %s.%s failed: %w", canisterID, req.Method(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply from %s.%s: %w", canisterID, req.Method(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call to %s.%s returned status %d: %s",
			canisterID, req.Method(), resp.StatusCode, string(body))
	}
	return body, nil
}
