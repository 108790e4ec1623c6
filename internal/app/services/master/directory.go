// Package master implements the dedicated game-server directory.
package master

import (
	"context"
	"sync"
	"time"

	"github.com/potential-games/mmo-services/internal/app/domain/gameserver"
	"github.com/potential-games/mmo-services/internal/app/metrics"
	"github.com/potential-games/mmo-services/internal/app/system"
	"github.com/potential-games/mmo-services/pkg/logger"
)

var _ system.Service = (*Directory)(nil)

// Directory tracks registered game servers and evicts entries that stop
// updating. Each entry is bound to the session that registered it; when the
// session drops, the entry goes with it.
type Directory struct {
	log      *logger.Logger
	ttl      time.Duration
	interval time.Duration

	mu      sync.RWMutex
	entries map[string]*entry // keyed by server_name

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
}

type entry struct {
	gameserver.Entry
	owner SessionID
}

// SessionID identifies the connection that registered a server.
type SessionID string

// NewDirectory creates a directory with the given entry TTL and sweep
// cadence.
func NewDirectory(ttl, sweepInterval time.Duration, log *logger.Logger) *Directory {
	if log == nil {
		log = logger.NewDefault("master-directory")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	return &Directory{
		log:      log,
		ttl:      ttl,
		interval: sweepInterval,
		entries:  make(map[string]*entry),
	}
}

func (d *Directory) Name() string { return "master-directory" }

// Start launches the stale-entry sweeper.
func (d *Directory) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	if d.running {
		d.lifecycle.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.lifecycle.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				d.sweep()
			}
		}
	}()

	d.log.Info("master directory started")
	return nil
}

// Stop halts the sweeper.
func (d *Directory) Stop(ctx context.Context) error {
	d.lifecycle.Lock()
	if !d.running {
		d.lifecycle.Unlock()
		return nil
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.lifecycle.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.log.Info("master directory stopped")
	return nil
}

// Register adds or replaces a server entry owned by the given session.
func (d *Directory) Register(owner SessionID, srv gameserver.Entry) {
	srv.UpdatedAt = time.Now().UTC()

	d.mu.Lock()
	d.entries[srv.ServerName] = &entry{Entry: srv, owner: owner}
	count := len(d.entries)
	d.mu.Unlock()

	metrics.SetRegisteredServers(count)
	d.log.WithField("server_name", srv.ServerName).
		WithField("endpoint", srv.IP).
		WithField("players", srv.CurrentPlayers).
		WithField("max_players", srv.MaxPlayers).
		WithField("level", srv.Level).
		Info("server registered")
}

// Update refreshes the player count of a registered server. Unknown servers
// are ignored with a warning.
func (d *Directory) Update(serverName string, currentPlayers int) bool {
	d.mu.Lock()
	e, ok := d.entries[serverName]
	if ok {
		e.CurrentPlayers = currentPlayers
		e.UpdatedAt = time.Now().UTC()
	}
	d.mu.Unlock()

	if !ok {
		d.log.WithField("server_name", serverName).Warn("update for unknown server")
		return false
	}
	d.log.WithField("server_name", serverName).
		WithField("players", currentPlayers).
		Debug("server updated")
	return true
}

// List returns a snapshot of all registered servers.
func (d *Directory) List() []gameserver.Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]gameserver.Entry, 0, len(d.entries))
	for _, e := range d.entries {
		result = append(result, e.Entry)
	}
	return result
}

// DropSession removes every entry owned by a disconnected session.
func (d *Directory) DropSession(owner SessionID) {
	d.mu.Lock()
	var removed []string
	for name, e := range d.entries {
		if e.owner == owner {
			delete(d.entries, name)
			removed = append(removed, name)
		}
	}
	count := len(d.entries)
	d.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	metrics.SetRegisteredServers(count)
	for _, name := range removed {
		d.log.WithField("server_name", name).Info("server disconnected")
	}
}

func (d *Directory) sweep() {
	cutoff := time.Now().UTC().Add(-d.ttl)

	d.mu.Lock()
	var removed []string
	for name, e := range d.entries {
		if e.UpdatedAt.Before(cutoff) {
			delete(d.entries, name)
			removed = append(removed, name)
		}
	}
	count := len(d.entries)
	d.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	metrics.SetRegisteredServers(count)
	for _, name := range removed {
		d.log.WithField("server_name", name).Warn("stale server evicted")
	}
}
