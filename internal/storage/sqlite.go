package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"grocery_bot/internal/model"
	"grocery_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a SQLite store.
type Option func(*SQLite)

// WithNow sets the time source for created and completed timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *SQLite) { s.now = now }
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const itemColumns = `id, name, category, quantity, priority, purchase_date, completed,
	shelf_life_days, estimated_price, notes, created_at, completed_at`

// CreateItem inserts a new item and populates its ID and CreatedAt.
func (s *SQLite) CreateItem(ctx context.Context, item *model.Item) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.Priority == "" {
		item.Priority = model.PriorityMedium
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (name, category, quantity, priority, purchase_date, completed,
		                    shelf_life_days, estimated_price, notes, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.Quantity, string(item.Priority), item.PurchaseDate,
		boolToInt(item.Completed), nullInt(item.ShelfLifeDays), item.EstimatedPrice, item.Notes,
		formatTime(now), nullTime(item.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	return nil
}

// GetItem returns a single item by its ID.
func (s *SQLite) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns all items ordered by ID.
func (s *SQLite) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanItems(rows)
}

// ListActiveItems returns all items that are not completed.
func (s *SQLite) ListActiveItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items WHERE completed = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanItems(rows)
}

// UpdateItem persists changes to an existing item.
func (s *SQLite) UpdateItem(ctx context.Context, item *model.Item) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, quantity = ?, priority = ?, purchase_date = ?,
		                  completed = ?, shelf_life_days = ?, estimated_price = ?, notes = ?, completed_at = ?
		 WHERE id = ?`,
		item.Name, item.Category, item.Quantity, string(item.Priority), item.PurchaseDate,
		boolToInt(item.Completed), nullInt(item.ShelfLifeDays), item.EstimatedPrice, item.Notes,
		nullTime(item.CompletedAt), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return expectRow(res, "item", item.ID)
}

// SetCompleted marks an item completed or not and returns the updated item.
func (s *SQLite) SetCompleted(ctx context.Context, id int64, completed bool) (*model.Item, error) {
	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET completed = ?, completed_at = ? WHERE id = ?`,
		boolToInt(completed), nullTime(completedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update completed: %w", err)
	}
	if err := expectRow(res, "item", id); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, id)
}

// DeleteItem removes an item by its ID.
func (s *SQLite) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectRow(res, "item", id)
}

// DeleteCompleted removes all completed items and returns their IDs.
func (s *SQLite) DeleteCompleted(ctx context.Context) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM items WHERE completed = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query completed: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE completed = 1`); err != nil {
		return nil, fmt.Errorf("delete completed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// DeleteItems removes the given items and returns how many existed.
func (s *SQLite) DeleteItems(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleted := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("delete item %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		deleted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

const reminderColumns = `id, item_id, item_name, type, priority, message, reminder_date, created_date,
	sent_date, is_active, is_sent, recurring, frequency_secs, channels, occurrence, max_occurrences,
	end_date, deactivated_date, interacted_date`

// LoadReminders returns the stored reminder collection in saved order.
func (s *SQLite) LoadReminders(ctx context.Context) ([]model.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// SaveReminders replaces the stored collection with reminders in one transaction.
func (s *SQLite) SaveReminders(ctx context.Context, reminders []model.Reminder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reminders (position, `+reminderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range reminders {
		_, err := stmt.ExecContext(ctx,
			i, r.ID, r.ItemID, r.ItemName, string(r.Type), string(r.Priority), r.Message,
			formatTime(r.ReminderDate), formatTime(r.CreatedDate), nullTime(r.SentDate),
			boolToInt(r.IsActive), boolToInt(r.IsSent), boolToInt(r.Recurring),
			int64(r.Frequency/time.Second), joinChannels(r.Channels), r.Occurrence, r.MaxOccurrences,
			nullTime(r.EndDate), nullTime(r.DeactivatedDate), nullTime(r.InteractedDate),
		)
		if err != nil {
			return fmt.Errorf("insert reminder %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// RecordActivity appends an activity entry and trims the log to ActivityLimit entries.
func (s *SQLite) RecordActivity(ctx context.Context, a model.Activity) error {
	ts := a.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reminder_activity (reminder_id, item_id, action, type, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ReminderID, a.ItemID, string(a.Action), string(a.Type), string(a.Priority), formatTime(ts),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM reminder_activity
		 WHERE id NOT IN (SELECT id FROM reminder_activity ORDER BY id DESC LIMIT ?)`, ActivityLimit,
	)
	if err != nil {
		return fmt.Errorf("trim activity: %w", err)
	}
	return tx.Commit()
}

// ListActivity returns up to limit activity entries, newest first.
func (s *SQLite) ListActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 || limit > ActivityLimit {
		limit = ActivityLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reminder_id, item_id, action, type, priority, created_at
		 FROM reminder_activity ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		var action, typ, priority, created string
		if err := rows.Scan(&a.ID, &a.ReminderID, &a.ItemID, &action, &typ, &priority, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = model.ActivityAction(action)
		a.Type = model.ReminderType(typ)
		a.Priority = model.Priority(priority)
		var p timeParser
		a.Timestamp = p.parse("created_at", created)
		if p.err != nil {
			return nil, fmt.Errorf("scan activity %d: %w", a.ID, p.err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddSubscriber registers a chat for notifications. Adding twice is a no-op.
func (s *SQLite) AddSubscriber(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (chat_id, created_at) VALUES (?, ?)`,
		chatID, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}
	return nil
}

// RemoveSubscriber unregisters a chat.
func (s *SQLite) RemoveSubscriber(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("remove subscriber: %w", err)
	}
	return nil
}

// ListSubscribers returns all subscribed chat IDs.
func (s *SQLite) ListSubscribers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func expectRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeParser parses stored timestamps and keeps the first failure.
type timeParser struct {
	err error
}

func (p *timeParser) parse(column, s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return t
}

func (p *timeParser) ptr(column string, ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := p.parse(column, ns.String)
	return &t
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}

func nullInt(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func joinChannels(cs []model.Channel) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitChannels(s string) []model.Channel {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]model.Channel, len(parts))
	for i, p := range parts {
		out[i] = model.Channel(p)
	}
	return out
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (model.Item, error) {
	var it model.Item
	var priority, created string
	var completed int
	var shelfLife sql.NullInt64
	var completedAt sql.NullString
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity, &priority, &it.PurchaseDate, &completed,
		&shelfLife, &it.EstimatedPrice, &it.Notes, &created, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return it, err
	}
	if err != nil {
		return it, fmt.Errorf("scan item: %w", err)
	}
	it.Priority = model.Priority(priority)
	it.Completed = completed == 1
	if shelfLife.Valid {
		d := int(shelfLife.Int64)
		it.ShelfLifeDays = &d
	}
	var p timeParser
	it.CreatedAt = p.parse("created_at", created)
	it.CompletedAt = p.ptr("completed_at", completedAt)
	if p.err != nil {
		return it, fmt.Errorf("scan item %d: %w", it.ID, p.err)
	}
	return it, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanReminder(row scannable) (model.Reminder, error) {
	var r model.Reminder
	var typ, priority, reminderDate, createdDate, channels string
	var isActive, isSent, recurring int
	var freqSecs int64
	var sent, end, deactivated, interacted sql.NullString
	err := row.Scan(&r.ID, &r.ItemID, &r.ItemName, &typ, &priority, &r.Message, &reminderDate, &createdDate,
		&sent, &isActive, &isSent, &recurring, &freqSecs, &channels, &r.Occurrence, &r.MaxOccurrences,
		&end, &deactivated, &interacted)
	if err != nil {
		return r, fmt.Errorf("scan reminder: %w", err)
	}
	r.Type = model.ReminderType(typ)
	r.Priority = model.Priority(priority)
	var p timeParser
	r.ReminderDate = p.parse("reminder_date", reminderDate)
	r.CreatedDate = p.parse("created_date", createdDate)
	r.SentDate = p.ptr("sent_date", sent)
	r.IsActive = isActive == 1
	r.IsSent = isSent == 1
	r.Recurring = recurring == 1
	r.Frequency = time.Duration(freqSecs) * time.Second
	r.Channels = splitChannels(channels)
	r.EndDate = p.ptr("end_date", end)
	r.DeactivatedDate = p.ptr("deactivated_date", deactivated)
	r.InteractedDate = p.ptr("interacted_date", interacted)
	if p.err != nil {
		return r, fmt.Errorf("scan reminder %s: %w", r.ID, p.err)
	}
	return r, nil
}
