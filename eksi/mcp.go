package eksi

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/eksirss/kit"
)

// RegisterMCP registers the feed tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerListTool(srv)
	s.registerAddTool(srv)
	s.registerRemoveTool(srv)
	s.registerTopicFeedTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- list subscriptions ---

func (s *Service) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "eksirss_list_subscriptions",
		Description: "List all subscribed Ekşi Sözlük topics.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		subs, err := s.Subscriptions()
		if err != nil {
			return nil, err
		}
		return map[string]any{"subscriptions": subs}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- add subscription ---

type addReq struct {
	Topic string `json:"topic"`
}

func (s *Service) registerAddTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "eksirss_add_subscription",
		Description: "Subscribe to a topic by URL, numeric ID, slug or search phrase.",
		InputSchema: inputSchema(map[string]any{
			"topic": map[string]any{"type": "string", "description": "Topic URL, numeric ID, slug--id or search phrase"},
		}, []string{"topic"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*addReq)
		return s.Subscribe(ctx, r.Topic)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r addReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- remove subscription ---

type removeReq struct {
	ID string `json:"id"`
}

func (s *Service) registerRemoveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "eksirss_remove_subscription",
		Description: "Remove a subscription by topic ID. Unknown IDs are a no-op.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Numeric topic ID"},
		}, []string{"id"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*removeReq)
		if err := s.Unsubscribe(r.ID); err != nil {
			return nil, err
		}
		return map[string]any{"removed": r.ID}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r removeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- topic feed ---

type topicFeedReq struct {
	Topic    string `json:"topic"`
	MaxPages int    `json:"max_pages,omitempty"`
}

func (s *Service) registerTopicFeedTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "eksirss_topic_feed",
		Description: "Assemble today's feed for a topic and return its items.",
		InputSchema: inputSchema(map[string]any{
			"topic":     map[string]any{"type": "string", "description": "Topic URL, numeric ID, slug--id or search phrase"},
			"max_pages": map[string]any{"type": "integer", "description": "Page bound, defaults to the configured maximum"},
		}, []string{"topic"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*topicFeedReq)
		fetchURL, id := Resolve(s.cfg.BaseURL, r.Topic)
		return s.TopicFeed(ctx, fetchURL, id, r.MaxPages)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r topicFeedReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
