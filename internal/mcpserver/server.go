// Package mcpserver exposes the grocery inventory and its reminders as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"grocery_bot/internal/clock"
	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/report"
	"grocery_bot/internal/shelflife"
	"grocery_bot/internal/storage"
	"grocery_bot/internal/validation"
)

const (
	serverName    = "grocery"
	serverVersion = "1.0.0"
)

// Reminders is the part of the reminder engine the server uses.
type Reminders interface {
	SetupExpiryReminders(ctx context.Context, items []model.Item, now time.Time) (int, error)
	DeactivateItemReminders(ctx context.Context, itemID int64) (int, error)
	ActiveReminders() []model.Reminder
	Statistics() reminder.Stats
	Load(ctx context.Context) error
}

// Server is the MCP server for the grocery inventory.
type Server struct {
	mcpServer *server.MCPServer
	items     storage.ItemStore
	reminders Reminders
	calc      expiry.Calculator
	resolver  *shelflife.Resolver
	clock     clock.Clock
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// NewServer creates a grocery MCP server backed by the given stores.
func NewServer(items storage.ItemStore, reminders Reminders, calc expiry.Calculator, resolver *shelflife.Resolver, opts ...Option) *Server {
	s := &Server{
		items:     items,
		reminders: reminders,
		calc:      calc,
		resolver:  resolver,
		clock:     clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("expiry_report",
			mcp.WithDescription("Classify all active items into expired, expiring soon and fresh"),
		),
		s.handleExpiryReport,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List grocery items with their expiration dates"),
			mcp.WithString("status", mcp.Description("Filter: active, completed, or all (default: all)")),
		),
		s.handleListItems,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_item",
			mcp.WithDescription("Add a grocery item and schedule its expiry reminders"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Item name")),
			mcp.WithNumber("quantity", mcp.Description("Quantity (default: 1)")),
			mcp.WithString("category", mcp.Description("Category such as dairy, meat, fruits (default: other)")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, high (default: medium)")),
			mcp.WithString("purchase_date", mcp.Description("Purchase date in YYYY-MM-DD format (default: now)")),
			mcp.WithNumber("shelf_life_days", mcp.Description("Shelf life override in days")),
			mcp.WithNumber("estimated_price", mcp.Description("Estimated price")),
			mcp.WithString("notes", mcp.Description("Free-form notes")),
		),
		s.handleAddItem,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_item",
			mcp.WithDescription("Mark an item as done and cancel its reminders"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Item ID")),
		),
		s.handleCompleteItem,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List active reminders ordered by reminder date"),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("shelf_life",
			mcp.WithDescription("Look up the typical shelf life of a product or category"),
			mcp.WithString("name", mcp.Description("Product name")),
			mcp.WithString("category", mcp.Description("Category, used when the name is unknown")),
		),
		s.handleShelfLife,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reminder_stats",
			mcp.WithDescription("Count reminders by state and unread notifications"),
		),
		s.handleReminderStats,
	)
}

func (s *Server) handleExpiryReport(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.items.ListActiveItems(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list items: %v", err)), nil
	}

	r := report.Build(items, s.calc, s.resolver, s.clock.Now())
	return jsonResult(newReportView(r))
}

func (s *Server) handleListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "all")

	var (
		items []model.Item
		err   error
	)
	switch status {
	case "", "all", "completed":
		items, err = s.items.ListItems(ctx)
	case "active":
		items, err = s.items.ListActiveItems(ctx)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid status %q (use active, completed or all)", status)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list items: %v", err)), nil
	}

	now := s.clock.Now()
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		if status == "completed" && !item.Completed {
			continue
		}
		views = append(views, s.view(item, now))
	}
	return jsonResult(views)
}

func (s *Server) handleAddItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := validation.NewItemInput(req.GetString("name", ""))
	in.Quantity = int(req.GetFloat("quantity", float64(in.Quantity)))
	in.Category = req.GetString("category", in.Category)
	in.Priority = req.GetString("priority", in.Priority)
	in.PurchaseDate = req.GetString("purchase_date", "")
	in.EstimatedPrice = req.GetFloat("estimated_price", 0)
	in.Notes = req.GetString("notes", "")
	if days := req.GetFloat("shelf_life_days", -1); days >= 0 {
		n := int(days)
		in.ShelfLifeDays = &n
	}

	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.reminders.Load(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load reminders: %v", err)), nil
	}
	item := in.Item()
	if err := s.items.CreateItem(ctx, &item); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add item: %v", err)), nil
	}

	now := s.clock.Now()
	if _, err := s.reminders.SetupExpiryReminders(ctx, []model.Item{item}, now); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("item #%d added but reminders failed: %v", item.ID, err)), nil
	}
	return jsonResult(s.view(item, now))
}

func (s *Server) handleCompleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idFloat := req.GetFloat("id", -1)
	if idFloat < 1 {
		return mcp.NewToolResultError("id is required"), nil
	}
	id := int64(idFloat)

	if err := s.reminders.Load(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load reminders: %v", err)), nil
	}
	item, err := s.items.SetCompleted(ctx, id, true)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("item #%d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete item: %v", err)), nil
	}

	n, err := s.reminders.DeactivateItemReminders(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("item #%d completed but reminders failed: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Item #%d %q marked as done, %d reminder(s) cancelled", item.ID, item.Name, n)), nil
}

func (s *Server) handleListReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.reminders.Load(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load reminders: %v", err)), nil
	}
	active := s.reminders.ActiveReminders()
	views := make([]reminderView, 0, len(active))
	for _, r := range active {
		views = append(views, newReminderView(r))
	}
	return jsonResult(views)
}

func (s *Server) handleShelfLife(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	category := req.GetString("category", "")
	if name == "" && category == "" {
		return mcp.NewToolResultError("name or category is required"), nil
	}

	return jsonResult(shelfLifeView{
		Name:     name,
		Category: category,
		Days:     s.resolver.Resolve(name, category),
	})
}

func (s *Server) handleReminderStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.reminders.Load(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load reminders: %v", err)), nil
	}
	st := s.reminders.Statistics()
	return jsonResult(statsView{
		Total:               st.Total,
		Active:              st.Active,
		Sent:                st.Sent,
		Pending:             st.Pending,
		UnreadNotifications: st.UnreadNotifications,
	})
}

func (s *Server) view(item model.Item, now time.Time) itemView {
	v := newItemView(item)
	state, err := s.calc.ComputeItem(item, s.resolver, now)
	if err != nil {
		v.ShelfLifeDays = expiry.ShelfLife(item, s.resolver)
		v.Error = err.Error()
		return v
	}
	v.setState(state)
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
