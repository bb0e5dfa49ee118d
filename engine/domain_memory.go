package engine

import (
	"sync"
	"time"
)

// tierEntry remembers the tier that last succeeded for a domain, with a TTL.
type tierEntry struct {
	tier      int
	expiresAt time.Time
}

// DomainMemory remembers which tier last worked for each domain, so a later
// fetch can skip the tiers that are known to fail there. Entries expire
// after the configured TTL and are pruned periodically.
type DomainMemory struct {
	store sync.Map // domain (string) -> *tierEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the remembered tier for a domain and whether one exists.
func (dm *DomainMemory) Get(domain string) (int, bool) {
	val, ok := dm.store.Load(domain)
	if !ok {
		return 0, false
	}
	entry := val.(*tierEntry)
	if time.Now().After(entry.expiresAt) {
		dm.store.Delete(domain)
		return 0, false
	}
	return entry.tier, true
}

// Set records which tier succeeded for a domain.
func (dm *DomainMemory) Set(domain string, tier int) {
	dm.store.Store(domain, &tierEntry{
		tier:      tier,
		expiresAt: time.Now().Add(dm.ttl),
	})
}

// Delete removes the memory for a domain (e.g. after the remembered tier
// stopped working).
func (dm *DomainMemory) Delete(domain string) {
	dm.store.Delete(domain)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.store.Range(func(key, value any) bool {
				if now.After(value.(*tierEntry).expiresAt) {
					dm.store.Delete(key)
				}
				return true
			})
		}
	}
}
