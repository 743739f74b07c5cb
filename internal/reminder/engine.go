// Package reminder manages the lifecycle of item reminders: creation,
// deduplication, due processing, recurrence and cleanup.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"grocery_bot/internal/clock"
	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
	"grocery_bot/internal/shelflife"
)

// DefaultWarningWindowDays is how far ahead expiry warnings are created.
const DefaultWarningWindowDays = 7

// persistTimeout bounds a snapshot write.
const persistTimeout = 10 * time.Second

// Sentinel errors.
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidFrequency = errors.New("recurring reminder needs a positive frequency")
	ErrUnknownType      = errors.New("unknown reminder type")
)

// Store persists the reminder collection as a whole.
type Store interface {
	LoadReminders(ctx context.Context) ([]model.Reminder, error)
	SaveReminders(ctx context.Context, reminders []model.Reminder) error
}

// Dispatcher delivers fired reminders and tracks user interaction with them.
type Dispatcher interface {
	Dispatch(ctx context.Context, r model.Reminder)
	Acknowledge(ctx context.Context, r model.Reminder)
	UnreadCount() int
}

// Engine owns the in-memory reminder collection.
type Engine struct {
	store      Store
	dispatcher Dispatcher
	clock      clock.Clock
	log        *slog.Logger
	calc       expiry.Calculator
	resolver   expiry.ShelfLifeResolver
	newID      func() string
	channels   []model.Channel

	warningWindow int

	mu         sync.Mutex
	reminders  []model.Reminder
	processing atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithWarningWindow sets how many days ahead expiry warnings are created.
func WithWarningWindow(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.warningWindow = days
		}
	}
}

// WithCalculator sets the expiry calculator.
func WithCalculator(c expiry.Calculator) Option {
	return func(e *Engine) { e.calc = c }
}

// WithResolver sets the shelf-life resolver.
func WithResolver(r expiry.ShelfLifeResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithDefaultChannels sets the channels used when a reminder names none.
func WithDefaultChannels(channels ...model.Channel) Option {
	return func(e *Engine) { e.channels = slices.Clone(channels) }
}

// New creates an Engine. Call Load to read the persisted collection.
func New(store Store, dispatcher Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		dispatcher:    dispatcher,
		clock:         clock.Real{},
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		calc:          expiry.NewCalculator(expiry.DefaultThresholdDays),
		resolver:      shelflife.New(nil),
		newID:         uuid.NewString,
		channels:      []model.Channel{model.ChannelInApp},
		warningWindow: DefaultWarningWindowDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the in-memory collection with the stored one.
func (e *Engine) Load(ctx context.Context) error {
	reminders, err := e.store.LoadReminders(ctx)
	if err != nil {
		e.log.Error("load reminders", "error", err)
		return fmt.Errorf("load reminders: %w", err)
	}

	e.mu.Lock()
	e.reminders = reminders
	e.mu.Unlock()

	e.log.Info("reminders loaded", "count", len(reminders))
	return nil
}

// CreateParams describes a reminder to create.
type CreateParams struct {
	Item            model.Item
	Type            model.ReminderType
	ReminderDate    time.Time
	DaysUntilExpiry int

	Recurring      bool
	Frequency      time.Duration
	MaxOccurrences int
	EndDate        *time.Time
	Channels       []model.Channel
}

// CreateReminder adds a reminder unless an active unsent one already exists
// for the same item and type. In that case the existing record is returned
// with created set to false.
func (e *Engine) CreateReminder(ctx context.Context, p CreateParams) (model.Reminder, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, created, err := e.createLocked(p)
	if err != nil || !created {
		return r, false, err
	}
	if err := e.persistLocked(ctx); err != nil {
		return r, true, err
	}
	return r, true, nil
}

func (e *Engine) createLocked(p CreateParams) (model.Reminder, bool, error) {
	if !p.Type.Valid() {
		return model.Reminder{}, false, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	if p.Recurring && p.Frequency <= 0 {
		return model.Reminder{}, false, ErrInvalidFrequency
	}

	if i := e.findPendingLocked(p.Item.ID, p.Type); i >= 0 {
		return clone(e.reminders[i]), false, nil
	}

	channels := p.Channels
	if len(channels) == 0 {
		channels = e.channels
	}

	r := model.Reminder{
		ID:             e.newID(),
		ItemID:         p.Item.ID,
		ItemName:       p.Item.Name,
		Type:           p.Type,
		Priority:       PriorityFor(p.Type, p.Item.Priority),
		Message:        Message(p.Item, p.Type, p.DaysUntilExpiry),
		ReminderDate:   p.ReminderDate,
		CreatedDate:    e.clock.Now(),
		IsActive:       true,
		Recurring:      p.Recurring,
		Frequency:      p.Frequency,
		Channels:       slices.Clone(channels),
		Occurrence:     1,
		MaxOccurrences: max(p.MaxOccurrences, 0),
		EndDate:        p.EndDate,
	}
	e.reminders = append(e.reminders, r)
	e.log.Debug("reminder created", "reminder_id", r.ID, "item_id", r.ItemID, "type", r.Type, "reminder_date", r.ReminderDate)
	return r, true, nil
}

func (e *Engine) findPendingLocked(itemID int64, t model.ReminderType) int {
	for i := range e.reminders {
		r := &e.reminders[i]
		if r.ItemID == itemID && r.Type == t && r.Pending() {
			return i
		}
	}
	return -1
}

func (e *Engine) hasActiveLocked(itemID int64, t model.ReminderType) bool {
	for i := range e.reminders {
		r := &e.reminders[i]
		if r.ItemID == itemID && r.Type == t && r.IsActive {
			return true
		}
	}
	return false
}

// SetupExpiryReminders creates expiry warnings and expired reminders for
// items that are not yet expired. It returns the number of reminders created.
func (e *Engine) SetupExpiryReminders(ctx context.Context, items []model.Item, now time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	created := 0
	for _, item := range items {
		if item.Completed {
			continue
		}
		state, err := e.calc.ComputeItem(item, e.resolver, now)
		if err != nil {
			e.log.Warn("skip item with invalid purchase date", "item_id", item.ID, "error", err)
			continue
		}
		days := state.DaysUntilExpiry
		if days <= 0 {
			continue
		}

		// Sent reminders stay active until the item is completed, which keeps
		// the next refresh from creating them again.
		if days <= e.warningWindow && !e.hasActiveLocked(item.ID, model.ReminderExpiryWarning) {
			_, ok, err := e.createLocked(CreateParams{
				Item:            item,
				Type:            model.ReminderExpiryWarning,
				ReminderDate:    now.AddDate(0, 0, days-1),
				DaysUntilExpiry: days,
			})
			if err != nil {
				return created, fmt.Errorf("create expiry warning: %w", err)
			}
			if ok {
				created++
			}
		}

		if e.hasActiveLocked(item.ID, model.ReminderExpired) {
			continue
		}
		_, ok, err := e.createLocked(CreateParams{
			Item:            item,
			Type:            model.ReminderExpired,
			ReminderDate:    state.ExpirationDate,
			DaysUntilExpiry: days,
		})
		if err != nil {
			return created, fmt.Errorf("create expired reminder: %w", err)
		}
		if ok {
			created++
		}
	}

	if created == 0 {
		return 0, nil
	}
	e.log.Info("expiry reminders created", "count", created)
	return created, e.persistLocked(ctx)
}

// ProcessResult summarizes one ProcessDue call.
type ProcessResult struct {
	// Skipped is set when another ProcessDue call was already running.
	Skipped bool
	Fired   []string
	Spawned int
}

// ProcessDue fires every active unsent reminder whose date is not after now.
// Reminders are visited in collection order. A cancelled ctx stops the batch
// and leaves the remaining reminders pending.
func (e *Engine) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	if !e.processing.CompareAndSwap(false, true) {
		e.log.Debug("due processing already running")
		return ProcessResult{Skipped: true}, nil
	}
	defer e.processing.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	var res ProcessResult
	var ctxErr error

	// Successors appended during the loop wait for the next call.
	n := len(e.reminders)
	for i := 0; i < n; i++ {
		if !e.reminders[i].Pending() || e.reminders[i].ReminderDate.After(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		e.dispatcher.Dispatch(ctx, e.reminders[i])

		sentAt := now
		e.reminders[i].IsSent = true
		e.reminders[i].SentDate = &sentAt
		res.Fired = append(res.Fired, e.reminders[i].ID)

		if next, ok := e.successor(e.reminders[i], now); ok {
			e.reminders = append(e.reminders, next)
			res.Spawned++
		}
	}

	if len(res.Fired) > 0 {
		e.log.Info("due reminders processed", "fired", len(res.Fired), "spawned", res.Spawned)
		if err := e.persistLocked(ctx); err != nil {
			return res, err
		}
	}
	if ctxErr != nil {
		return res, fmt.Errorf("process due reminders: %w", ctxErr)
	}
	return res, nil
}

func (e *Engine) successor(r model.Reminder, now time.Time) (model.Reminder, bool) {
	if !r.Recurring || r.Frequency <= 0 {
		return model.Reminder{}, false
	}
	occurrence := r.Occurrence + 1
	if r.MaxOccurrences > 0 && occurrence > r.MaxOccurrences {
		return model.Reminder{}, false
	}
	date := r.ReminderDate.Add(r.Frequency)
	if r.EndDate != nil && date.After(*r.EndDate) {
		return model.Reminder{}, false
	}

	next := r
	next.ID = e.newID()
	next.ReminderDate = date
	next.CreatedDate = now
	next.IsSent = false
	next.SentDate = nil
	next.InteractedDate = nil
	next.Occurrence = occurrence
	next.Channels = slices.Clone(r.Channels)
	return next, true
}

// DeactivateItemReminders deactivates every active reminder of an item.
// It returns the number of reminders changed.
func (e *Engine) DeactivateItemReminders(ctx context.Context, itemID int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	changed := 0
	for i := range e.reminders {
		r := &e.reminders[i]
		if r.ItemID != itemID || !r.IsActive {
			continue
		}
		r.IsActive = false
		r.DeactivatedDate = &now
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	e.log.Info("item reminders deactivated", "item_id", itemID, "count", changed)
	return changed, e.persistLocked(ctx)
}

// DeactivateReminder deactivates a single reminder.
func (e *Engine) DeactivateReminder(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return ErrReminderNotFound
	}
	r := &e.reminders[i]
	if !r.IsActive {
		return nil
	}
	now := e.clock.Now()
	r.IsActive = false
	r.DeactivatedDate = &now
	return e.persistLocked(ctx)
}

// Cleanup removes inactive reminders dated strictly before now minus
// retentionDays. Active reminders are kept regardless of age.
func (e *Engine) Cleanup(ctx context.Context, now time.Time, retentionDays int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := now.AddDate(0, 0, -retentionDays)
	before := len(e.reminders)
	e.reminders = slices.DeleteFunc(e.reminders, func(r model.Reminder) bool {
		return !r.IsActive && r.ReminderDate.Before(cutoff)
	})
	removed := before - len(e.reminders)
	if removed == 0 {
		return 0, nil
	}
	e.log.Info("old reminders removed", "count", removed, "cutoff", cutoff)
	return removed, e.persistLocked(ctx)
}

// HandleReminderClick records that the user acknowledged a reminder.
func (e *Engine) HandleReminderClick(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexLocked(id)
	if i < 0 {
		return ErrReminderNotFound
	}
	now := e.clock.Now()
	e.reminders[i].InteractedDate = &now
	e.dispatcher.Acknowledge(ctx, e.reminders[i])
	e.log.Info("reminder clicked", "reminder_id", id, "item_id", e.reminders[i].ItemID)
	return e.persistLocked(ctx)
}

func (e *Engine) indexLocked(id string) int {
	return slices.IndexFunc(e.reminders, func(r model.Reminder) bool { return r.ID == id })
}

// persistLocked writes a snapshot of the collection. On failure the
// in-memory collection is kept and the next mutation writes it again.
// The write outlives cancellation of ctx so that reminders already
// dispatched are stored as sent.
func (e *Engine) persistLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := e.store.SaveReminders(ctx, cloneAll(e.reminders)); err != nil {
		e.log.Error("save reminders", "count", len(e.reminders), "error", err)
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}

// Reminders returns a copy of the whole collection.
func (e *Engine) Reminders() []model.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAll(e.reminders)
}

// Reminder returns a single reminder by ID.
func (e *Engine) Reminder(id string) (model.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(id)
	if i < 0 {
		return model.Reminder{}, ErrReminderNotFound
	}
	return clone(e.reminders[i]), nil
}

// ActiveReminders returns the active reminders sorted by reminder date.
func (e *Engine) ActiveReminders() []model.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []model.Reminder
	for _, r := range e.reminders {
		if r.IsActive {
			out = append(out, clone(r))
		}
	}
	slices.SortStableFunc(out, func(a, b model.Reminder) int {
		return a.ReminderDate.Compare(b.ReminderDate)
	})
	return out
}

// ItemReminders returns all reminders of an item in collection order.
func (e *Engine) ItemReminders(itemID int64) []model.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []model.Reminder
	for _, r := range e.reminders {
		if r.ItemID == itemID {
			out = append(out, clone(r))
		}
	}
	return out
}

// Stats counts reminders by state.
type Stats struct {
	Total               int
	Active              int
	Sent                int
	Pending             int
	UnreadNotifications int
}

// Statistics returns reminder counts.
func (e *Engine) Statistics() Stats {
	e.mu.Lock()
	var s Stats
	s.Total = len(e.reminders)
	for i := range e.reminders {
		r := &e.reminders[i]
		if r.IsActive {
			s.Active++
		}
		if r.IsSent {
			s.Sent++
		}
		if r.Pending() {
			s.Pending++
		}
	}
	e.mu.Unlock()

	s.UnreadNotifications = e.dispatcher.UnreadCount()
	return s
}

func clone(r model.Reminder) model.Reminder {
	r.Channels = slices.Clone(r.Channels)
	return r
}

func cloneAll(rs []model.Reminder) []model.Reminder {
	out := make([]model.Reminder, len(rs))
	for i, r := range rs {
		out[i] = clone(r)
	}
	return out
}
