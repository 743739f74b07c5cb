// Command mcp-grocery provides an MCP server for the grocery inventory.
//
// The server exposes expiry reports, item management and reminder queries
// over the same SQLite database the bot uses.
//
// Usage:
//
//	./mcp-grocery          # Start MCP server (stdio)
//	./mcp-grocery --help   # Show help
//
// Environment:
//
//	GROCERY_CONFIG         Path to YAML config file
//	GROCERY_DATABASE_PATH  Path to SQLite database (default: ./data/grocery.db)
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"grocery_bot/internal/app"
	"grocery_bot/internal/config"
	"grocery_bot/internal/mcpserver"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(app.ConfigPath(""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	log := app.NewLogger(cfg.LogLevel)

	a, err := app.Open(context.Background(), cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	s := mcpserver.NewServer(a.Store, a.Engine, a.Calc, a.Resolver)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Grocery Server - Grocery expiry tracking via MCP protocol

USAGE:
    mcp-grocery          Start MCP server (communicates via stdio)
    mcp-grocery --help   Show this help

ENVIRONMENT:
    GROCERY_CONFIG         Path to YAML config file
    GROCERY_DATABASE_PATH  Path to SQLite database file
                           Default: ./data/grocery.db

TOOLS:
    expiry_report    Classify active items into expired, expiring soon and fresh
    list_items       List items with expiration dates (optional status filter)
    add_item         Add an item and schedule its expiry reminders
    complete_item    Mark an item as done and cancel its reminders
    list_reminders   List active reminders
    shelf_life       Look up the shelf life of a product or category
    reminder_stats   Count reminders by state

CONFIGURATION:
    Add to your MCP client config:
    {
      "mcpServers": {
        "grocery": {
          "command": "/path/to/mcp-grocery",
          "args": []
        }
      }
    }`)
}
