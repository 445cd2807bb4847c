package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rulekeeper/rulebook-mcp/internal/config"
	"github.com/rulekeeper/rulebook-mcp/tools"
)

const (
	version     = "0.3.0"
	serverName  = "rulebook-mcp-server"
	description = "MCP server for rulebook search, phrase annotation and tooltips"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)
	log.Printf("%s", description)

	cfg := config.Load()

	// Create MCP server
	server := createMCPServer()

	if err := registerTools(server, cfg); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Set up cleanup on shutdown
	defer func() {
		if err := tools.CloseRulebook(); err != nil {
			log.Printf("Error closing rulebook: %v", err)
		}
	}()

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Printf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server, cfg config.Config) error {
	// search + annotate + tooltip + suggest + reload
	if err := tools.RegisterRulebookTools(server, cfg); err != nil {
		return fmt.Errorf("failed to register rulebook tools: %w", err)
	}

	log.Printf("✓ All tools registered: 5 tools (search + annotate + tooltip + suggest + reload)")
	return nil
}
