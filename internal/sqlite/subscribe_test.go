package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func userQuery(userID string) types.Query {
	return types.Query{OrderBy: []string{types.FieldOrder}}.
		Where(types.FieldUserID, types.OpEqual, userID)
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	s := newTestStore(t)
	seedInventory(t, s, "u1", "Milk")

	sub, err := s.Subscribe(types.CollectionInventory, userQuery("u1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	select {
	case docs := <-sub.Updates():
		if len(docs) != 1 {
			t.Fatalf("expected 1 document in initial snapshot, got %d", len(docs))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestSubscribeDeliversOnChange(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.Subscribe(types.CollectionInventory, userQuery("u1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()
	<-sub.Updates() // initial empty snapshot

	item := types.InventoryItem{Name: "Eggs", Order: 0, UserID: "u1"}
	if _, err := s.Create(context.Background(), types.CollectionInventory, item.ToFields()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case docs := <-sub.Updates():
		if len(docs) != 1 || docs[0].Fields.StringField(types.FieldName) != "Eggs" {
			t.Fatalf("unexpected snapshot %v", docs)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered after create")
	}
}

func TestSubscribeIgnoresOtherUsers(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.Subscribe(types.CollectionInventory, userQuery("u1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()
	<-sub.Updates()

	item := types.InventoryItem{Name: "Butter", Order: 0, UserID: "u2"}
	if _, err := s.Create(context.Background(), types.CollectionInventory, item.ToFields()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A change by another user still re-evaluates the query; the snapshot
	// must not contain the other user's document.
	select {
	case docs := <-sub.Updates():
		if len(docs) != 0 {
			t.Fatalf("snapshot leaked another user's documents: %v", docs)
		}
	case <-time.After(100 * time.Millisecond):
		// Acceptable: some backends skip unaffected subscriptions.
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.Subscribe(types.CollectionInventory, userQuery("u1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	<-sub.Updates()

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	item := types.InventoryItem{Name: "Milk", Order: 0, UserID: "u1"}
	if _, err := s.Create(context.Background(), types.CollectionInventory, item.ToFields()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, open := <-sub.Updates(); open {
		t.Fatal("snapshot delivered after Unsubscribe")
	}
	if err := sub.Err(); err != nil {
		t.Errorf("clean unsubscribe reported error: %v", err)
	}
}

func TestDetachClosesSubscriptions(t *testing.T) {
	s := NewStore()
	config := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	if err := s.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	sub, err := s.Subscribe(types.CollectionInventory, userQuery("u1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	<-sub.Updates()

	if err := s.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	if _, open := <-sub.Updates(); open {
		t.Fatal("channel still open after Detach")
	}
	if err := sub.Err(); err != types.ErrStoreDetached {
		t.Errorf("expected ErrStoreDetached, got %v", err)
	}
}
