package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"grocery_bot/internal/model"
)

var ignoreItemTS = cmpopts.IgnoreFields(model.Item{}, "CreatedAt", "CompletedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func intPtr(n int) *int { return &n }

func TestItemCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	tests := []struct {
		name string
		item model.Item
		want model.Item
	}{
		{
			name: "full item",
			item: model.Item{
				Name:           "Greek Yogurt",
				Category:       "dairy",
				Quantity:       3,
				Priority:       model.PriorityHigh,
				PurchaseDate:   "2026-05-10",
				ShelfLifeDays:  intPtr(10),
				EstimatedPrice: 4.5,
				Notes:          "plain",
			},
			want: model.Item{
				Name:           "Greek Yogurt",
				Category:       "dairy",
				Quantity:       3,
				Priority:       model.PriorityHigh,
				PurchaseDate:   "2026-05-10",
				ShelfLifeDays:  intPtr(10),
				EstimatedPrice: 4.5,
				Notes:          "plain",
			},
		},
		{
			name: "defaults applied",
			item: model.Item{Name: "Bread"},
			want: model.Item{Name: "Bread", Quantity: 1, Priority: model.PriorityMedium},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			if err := s.CreateItem(ctx, &item); err != nil {
				t.Fatalf("create: %v", err)
			}
			if item.ID == 0 {
				t.Fatal("expected non-zero ID")
			}

			got, err := s.GetItem(ctx, item.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			want := tt.want
			want.ID = item.ID
			if diff := cmp.Diff(want, *got, ignoreItemTS); diff != "" {
				t.Errorf("GetItem mismatch (-want +got):\n%s", diff)
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
		})
	}
}

func TestGetItemNotFound(t *testing.T) {
	_, err := newTestDB(t).GetItem(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAndDeleteItem(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	item := model.Item{Name: "Apples", Category: "fruits"}
	if err := s.CreateItem(ctx, &item); err != nil {
		t.Fatalf("create: %v", err)
	}
	item.Quantity = 6
	item.ShelfLifeDays = intPtr(14)
	if err := s.UpdateItem(ctx, &item); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(item, *got, ignoreItemTS); diff != "" {
		t.Errorf("after update (-want +got):\n%s", diff)
	}

	if err := s.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteItem(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	missing := model.Item{ID: 999, Name: "Ghost"}
	if err := s.UpdateItem(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestCompletionAndActiveItems(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	var ids []int64
	for _, name := range []string{"Milk", "Eggs", "Rice"} {
		item := model.Item{Name: name}
		if err := s.CreateItem(ctx, &item); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, item.ID)
	}

	done, err := s.SetCompleted(ctx, ids[1], true)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Errorf("completed item = %+v", done)
	}

	active, err := s.ListActiveItems(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	var names []string
	for _, it := range active {
		names = append(names, it.Name)
	}
	if diff := cmp.Diff([]string{"Milk", "Rice"}, names); diff != "" {
		t.Errorf("active items (-want +got):\n%s", diff)
	}

	undone, err := s.SetCompleted(ctx, ids[1], false)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if undone.Completed || undone.CompletedAt != nil {
		t.Errorf("uncompleted item = %+v", undone)
	}

	if _, err := s.SetCompleted(ctx, 999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete missing err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCompletedAndDeleteItems(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	var ids []int64
	for i := range 4 {
		item := model.Item{Name: fmt.Sprintf("item-%d", i), Completed: i%2 == 1}
		if err := s.CreateItem(ctx, &item); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, item.ID)
	}

	removed, err := s.DeleteCompleted(ctx)
	if err != nil {
		t.Fatalf("delete completed: %v", err)
	}
	if diff := cmp.Diff([]int64{ids[1], ids[3]}, removed); diff != "" {
		t.Errorf("removed ids (-want +got):\n%s", diff)
	}

	n, err := s.DeleteItems(ctx, []int64{ids[0], ids[1], 999})
	if err != nil {
		t.Fatalf("delete items: %v", err)
	}
	if diff := cmp.Diff(1, n); diff != "" {
		t.Errorf("deleted (-want +got):\n%s", diff)
	}

	all, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(1, len(all)); diff != "" {
		t.Fatalf("remaining (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ids[2], all[0].ID); diff != "" {
		t.Errorf("remaining id (-want +got):\n%s", diff)
	}
}

func TestReminderSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	base := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	sent := base.Add(time.Minute)
	end := base.AddDate(0, 1, 0)
	reminders := []model.Reminder{
		{
			ID:             "b-second-id",
			ItemID:         2,
			ItemName:       "Eggs",
			Type:           model.ReminderShoppingList,
			Priority:       model.PriorityLow,
			Message:        "📝 You have 12 Eggs on your shopping list.",
			ReminderDate:   base,
			CreatedDate:    base.Add(-time.Hour),
			SentDate:       &sent,
			IsActive:       true,
			IsSent:         true,
			Recurring:      true,
			Frequency:      24 * time.Hour,
			Channels:       []model.Channel{model.ChannelInApp, model.ChannelTelegram},
			Occurrence:     2,
			MaxOccurrences: 5,
			EndDate:        &end,
		},
		{
			ID:           "a-first-id",
			ItemID:       1,
			ItemName:     "Milk",
			Type:         model.ReminderExpired,
			Priority:     model.PriorityHigh,
			Message:      "🚨 Milk has expired! Please remove from list.",
			ReminderDate: base.Add(500 * time.Millisecond),
			CreatedDate:  base,
			Occurrence:   1,
		},
	}

	if err := s.SaveReminders(ctx, reminders); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadReminders(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(reminders, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	if err := s.SaveReminders(ctx, reminders[1:]); err != nil {
		t.Fatalf("save shorter: %v", err)
	}
	got, err = s.LoadReminders(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(reminders[1:], got); diff != "" {
		t.Errorf("snapshot replace (-want +got):\n%s", diff)
	}
}

func TestSaveRemindersRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	first := []model.Reminder{{ID: "keep", ItemID: 1, Type: model.ReminderExpired, IsActive: true}}
	if err := s.SaveReminders(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	dup := []model.Reminder{{ID: "x", ItemID: 1}, {ID: "x", ItemID: 2}}
	if err := s.SaveReminders(ctx, dup); err == nil {
		t.Fatal("expected duplicate id error")
	}

	got, err := s.LoadReminders(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(1, len(got)); diff != "" {
		t.Fatalf("count after failed save (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("keep", got[0].ID); diff != "" {
		t.Errorf("surviving id (-want +got):\n%s", diff)
	}
}

func TestCorruptTimestampsRejected(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		corrupt string
		load    func(s *SQLite) error
		wantMsg string
	}{
		{
			name:    "reminder date",
			corrupt: `UPDATE reminders SET reminder_date = 'yesterday'`,
			load: func(s *SQLite) error {
				_, err := s.LoadReminders(ctx)
				return err
			},
			wantMsg: `scan reminder r1: parse reminder_date "yesterday"`,
		},
		{
			name:    "reminder sent date",
			corrupt: `UPDATE reminders SET sent_date = '2026-13-01'`,
			load: func(s *SQLite) error {
				_, err := s.LoadReminders(ctx)
				return err
			},
			wantMsg: `parse sent_date "2026-13-01"`,
		},
		{
			name:    "item creation time",
			corrupt: `UPDATE items SET created_at = ''`,
			load: func(s *SQLite) error {
				_, err := s.ListItems(ctx)
				return err
			},
			wantMsg: `scan item 1: parse created_at ""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestDB(t)
			item := model.Item{Name: "Milk", Category: "dairy"}
			if err := s.CreateItem(ctx, &item); err != nil {
				t.Fatalf("create: %v", err)
			}
			err := s.SaveReminders(ctx, []model.Reminder{{
				ID: "r1", ItemID: item.ID, Type: model.ReminderExpired, ReminderDate: base,
				CreatedDate: base, IsActive: true,
			}})
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if _, err := s.db.ExecContext(ctx, tt.corrupt); err != nil {
				t.Fatalf("corrupt row: %v", err)
			}

			err = tt.load(s)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q missing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestActivityKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for i := range ActivityLimit + 5 {
		err := s.RecordActivity(ctx, model.Activity{
			ReminderID: fmt.Sprintf("r%d", i),
			ItemID:     int64(i),
			Action:     model.ActivitySent,
			Type:       model.ReminderExpired,
			Priority:   model.PriorityHigh,
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	all, err := s.ListActivity(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(ActivityLimit, len(all)); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fmt.Sprintf("r%d", ActivityLimit+4), all[0].ReminderID); diff != "" {
		t.Errorf("newest (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("r5", all[len(all)-1].ReminderID); diff != "" {
		t.Errorf("oldest kept (-want +got):\n%s", diff)
	}

	few, err := s.ListActivity(ctx, 3)
	if err != nil {
		t.Fatalf("list few: %v", err)
	}
	if diff := cmp.Diff(3, len(few)); diff != "" {
		t.Errorf("limited (-want +got):\n%s", diff)
	}
}

func TestSubscribers(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, id := range []int64{300, 100, 300, 200} {
		if err := s.AddSubscriber(ctx, id); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	if err := s.RemoveSubscriber(ctx, 200); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got, err := s.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]int64{100, 300}, got); diff != "" {
		t.Errorf("subscribers (-want +got):\n%s", diff)
	}
}
