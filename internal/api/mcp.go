package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/devfolio/internal/profile"
	"github.com/kalambet/devfolio/internal/profileview"
	"github.com/kalambet/devfolio/internal/projects"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

// MCPProfiles supplies the signed-in user's profile.
type MCPProfiles interface {
	GetProfile() (profile.Profile, error)
}

// MCPHistory lists recent fetches.
type MCPHistory interface {
	RecentFetches(subject string, limit int) ([]storage.FetchRecord, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	View    *profileview.View
	Session session.Session
	Profile MCPProfiles
	History MCPHistory // optional; if nil, devfolio://history is empty
	WebURL  string     // optional; prefixes project paths in open_project
}

// NewMCPServer creates an MCP server with all devfolio tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"devfolio",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("devfolio: developer profile pages with owned and collaborated projects."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("user_projects",
			mcp.WithDescription("Load a user's profile page: owned and collaborated projects with tag summaries."),
			mcp.WithString("user_id", mcp.Description("Subject user id; defaults to the signed-in user")),
		),
		mcpUserProjects(deps),
	)

	s.AddTool(
		mcp.NewTool("open_project",
			mcp.WithDescription("Resolve a project from the last loaded page to its detail view path."),
			mcp.WithString("project_id", mcp.Description("Project id as listed by user_projects"), mcp.Required()),
		),
		mcpOpenProject(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"session://current-user",
			"Current User",
			mcp.WithResourceDescription("Signed-in user's profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCurrentUser(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"devfolio://history",
			"Recent Fetches",
			mcp.WithResourceDescription("Last 10 project fetches and how they resolved"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func mcpUserProjects(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subject, err := deps.Session.ResolveSubject(req.GetString("user_id", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("no user id: %v", err)), nil
		}

		page := deps.View.Refresh(ctx, subject)
		if page.Phase == profileview.PhaseFailed {
			msg := projects.FallbackMessage
			if page.Notice != nil {
				msg = page.Notice.Message
			}
			return mcpError(msg), nil
		}

		b, err := json.Marshal(page)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal page: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpOpenProject(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("project_id")
		if err != nil {
			return mcpError("project_id is required"), nil
		}

		intent, err := deps.View.SelectProject(id)
		if err != nil {
			return mcpError(fmt.Sprintf("cannot open project: %v", err)), nil
		}

		out := struct {
			profileview.NavigationIntent
			URL string `json:"url,omitempty"`
		}{NavigationIntent: intent}
		if deps.WebURL != "" {
			out.URL = strings.TrimRight(deps.WebURL, "/") + intent.Path
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal intent: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceCurrentUser(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p := deps.Session.CurrentUser
		if deps.Profile != nil {
			var err error
			p, err = deps.Profile.GetProfile()
			if err != nil {
				return nil, fmt.Errorf("failed to get profile: %w", err)
			}
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type fetchSummary struct {
			ID           string `json:"id"`
			CreatedAt    string `json:"created_at"`
			Subject      string `json:"subject"`
			Outcome      string `json:"outcome"`
			Message      string `json:"message,omitempty"`
			Owned        int    `json:"owned"`
			Collaborated int    `json:"collaborated"`
		}

		summaries := []fetchSummary{}
		if deps.History != nil {
			records, err := deps.History.RecentFetches("", 10)
			if err != nil {
				return nil, fmt.Errorf("failed to get recent fetches: %w", err)
			}
			for _, r := range records {
				summaries = append(summaries, fetchSummary{
					ID:           r.ID,
					CreatedAt:    r.CreatedAt.Format(time.RFC3339),
					Subject:      r.Subject,
					Outcome:      r.Outcome,
					Message:      r.Message,
					Owned:        r.OwnedCount,
					Collaborated: r.CollaboratedCount,
				})
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
