package master

import (
	"context"
	"testing"
	"time"

	"github.com/potential-games/mmo-services/internal/app/domain/gameserver"
)

func testEntry(name string) gameserver.Entry {
	return gameserver.Entry{
		ServerName:     name,
		DisplayName:    "Test Server",
		IP:             "10.0.0.1",
		Port:           7777,
		Level:          "highlands",
		CurrentPlayers: 3,
		MaxPlayers:     64,
	}
}

func TestRegisterAndList(t *testing.T) {
	d := NewDirectory(time.Minute, time.Minute, nil)

	d.Register("session-1", testEntry("srv-1"))
	d.Register("session-1", testEntry("srv-2"))

	servers := d.List()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
}

func TestRegisterReplacesByName(t *testing.T) {
	d := NewDirectory(time.Minute, time.Minute, nil)

	d.Register("session-1", testEntry("srv-1"))

	replacement := testEntry("srv-1")
	replacement.CurrentPlayers = 42
	d.Register("session-2", replacement)

	servers := d.List()
	if len(servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(servers))
	}
	if servers[0].CurrentPlayers != 42 {
		t.Fatalf("expected replacement entry, got %+v", servers[0])
	}
}

func TestUpdatePlayerCount(t *testing.T) {
	d := NewDirectory(time.Minute, time.Minute, nil)
	d.Register("session-1", testEntry("srv-1"))

	if !d.Update("srv-1", 17) {
		t.Fatal("expected update to succeed")
	}
	if d.Update("no-such-server", 5) {
		t.Fatal("expected update of unknown server to fail")
	}

	servers := d.List()
	if servers[0].CurrentPlayers != 17 {
		t.Fatalf("expected 17 players, got %d", servers[0].CurrentPlayers)
	}
}

func TestDropSessionRemovesOwnedEntries(t *testing.T) {
	d := NewDirectory(time.Minute, time.Minute, nil)
	d.Register("session-1", testEntry("srv-1"))
	d.Register("session-1", testEntry("srv-2"))
	d.Register("session-2", testEntry("srv-3"))

	d.DropSession("session-1")

	servers := d.List()
	if len(servers) != 1 {
		t.Fatalf("expected 1 server after drop, got %d", len(servers))
	}
	if servers[0].ServerName != "srv-3" {
		t.Fatalf("expected srv-3 to survive, got %s", servers[0].ServerName)
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	d := NewDirectory(20*time.Millisecond, time.Minute, nil)
	d.Register("session-1", testEntry("srv-1"))

	time.Sleep(40 * time.Millisecond)
	d.Register("session-1", testEntry("srv-2"))
	d.sweep()

	servers := d.List()
	if len(servers) != 1 {
		t.Fatalf("expected 1 server after sweep, got %d", len(servers))
	}
	if servers[0].ServerName != "srv-2" {
		t.Fatalf("expected fresh srv-2 to survive, got %s", servers[0].ServerName)
	}
}

func TestSweeperRunsInBackground(t *testing.T) {
	d := NewDirectory(10*time.Millisecond, 10*time.Millisecond, nil)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := d.Stop(stopCtx); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}()

	d.Register("session-1", testEntry("srv-1"))

	deadline := time.Now().Add(time.Second)
	for len(d.List()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected background sweeper to evict the stale entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	d := NewDirectory(time.Minute, time.Minute, nil)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
