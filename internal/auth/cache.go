package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// CachedIdentity is one identity cache entry. It is keyed by a non-reversible,
// truncated derivation of the raw credential; the raw secret is never stored.
//
// Invariant: ExpiresAt = CachedAt + TTL at creation, and an entry is never
// returned by Resolve once now > ExpiresAt.
type CachedIdentity struct {
	Key string

	Identity

	CachedAt  time.Time
	ExpiresAt time.Time
}

// CacheOptions configures an IdentityCache. The cache is explicitly
// constructed and passed to whoever needs it; there is no package-level
// singleton.
type CacheOptions struct {
	TTL           time.Duration
	MaxEntries    int
	SweepInterval time.Duration

	// Permissions derives the permission set from a role. Wired to the rbac
	// role table in main; injected here to keep this package free of an rbac
	// dependency (rbac's middleware imports auth).
	Permissions func(role string) []string

	// AdminRole satisfies every HasRole check.
	AdminRole string

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func (o CacheOptions) withDefaults() CacheOptions {
	out := o
	if out.TTL <= 0 {
		out.TTL = 5 * time.Minute
	}
	if out.MaxEntries <= 0 {
		out.MaxEntries = 10000
	}
	if out.SweepInterval <= 0 {
		out.SweepInterval = time.Minute
	}
	if out.Permissions == nil {
		out.Permissions = func(string) []string { return nil }
	}
	if out.AdminRole == "" {
		out.AdminRole = "admin"
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

// IdentityCache is an in-process, time-bounded credential -> identity map.
//
// It is purely passive storage plus a derived permission view: it never
// contacts the identity provider. A miss (or expired entry) is the designed
// signal for "go validate for real", not an error.
//
// Safe for concurrent Resolve/Store/Invalidate from request goroutines.
type IdentityCache struct {
	mu      sync.RWMutex
	entries map[string]CachedIdentity

	opts CacheOptions
	log  *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

func NewIdentityCache(opts CacheOptions, log *slog.Logger) *IdentityCache {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	c := &IdentityCache{
		entries: make(map[string]CachedIdentity),
		opts:    opts,
		log:     log,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// CredentialKey derives the cache key from a raw credential: hex SHA-256
// truncated to 32 chars. Non-reversible and collision-safe at cache scale.
func CredentialKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:32]
}

// Resolve returns the cached identity for a credential if present and not
// expired. An expired entry is evicted on the spot and reported as a miss.
func (c *IdentityCache) Resolve(credential string) (CachedIdentity, bool) {
	return c.resolveKey(CredentialKey(credential))
}

func (c *IdentityCache) resolveKey(key string) (CachedIdentity, bool) {
	now := c.opts.Clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CachedIdentity{}, false
	}
	if now.After(e.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Store may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && now.After(cur.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return CachedIdentity{}, false
	}
	return e, true
}

// Store inserts or replaces the entry for a credential, deriving the
// permission set from the identity's role. An optional ttl overrides the
// cache-wide TTL for this entry only. When the cache is at capacity the
// oldest 10% of entries (by CachedAt) are evicted first.
func (c *IdentityCache) Store(credential string, id Identity, ttl ...time.Duration) CachedIdentity {
	key := CredentialKey(credential)
	now := c.opts.Clock()

	lifetime := c.opts.TTL
	if len(ttl) > 0 && ttl[0] > 0 {
		lifetime = ttl[0]
	}

	id.Permissions = c.opts.Permissions(id.Role)
	e := CachedIdentity{
		Key:       key,
		Identity:  id,
		CachedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.opts.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = e
	return e
}

// evictOldestLocked removes the oldest 10% of entries by CachedAt.
// Caller must hold the write lock.
func (c *IdentityCache) evictOldestLocked() {
	n := len(c.entries) / 10
	if n < 1 {
		n = 1
	}

	type aged struct {
		key      string
		cachedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, cachedAt: e.CachedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].cachedAt.Before(all[j].cachedAt) })

	for i := 0; i < n && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
	c.log.Debug("identity cache capacity eviction", "evicted", n, "size", len(c.entries))
}

// Invalidate removes the entry for a credential. Returns whether one existed.
func (c *IdentityCache) Invalidate(credential string) bool {
	return c.InvalidateKey(CredentialKey(credential))
}

// InvalidateKey removes an entry by its derived key. Used by the redis
// invalidation listener, which only ever sees derived keys.
func (c *IdentityCache) InvalidateKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return ok
}

// HasPermission reports whether the cached identity for credential holds a
// permission. A miss (including expiry) is false: callers must re-validate.
func (c *IdentityCache) HasPermission(credential, permission string) bool {
	e, ok := c.Resolve(credential)
	if !ok {
		return false
	}
	return e.Identity.HasPermission(permission)
}

// HasRole reports whether the cached identity holds a role.
// The administrative role satisfies every role check.
func (c *IdentityCache) HasRole(credential, role string) bool {
	e, ok := c.Resolve(credential)
	if !ok {
		return false
	}
	return e.Role == role || e.Role == c.opts.AdminRole
}

// Len returns the current entry count.
func (c *IdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts all expired entries immediately. The background loop calls
// this on its interval; tests call it directly.
func (c *IdentityCache) Sweep() int {
	now := c.opts.Clock()

	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for k, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

func (c *IdentityCache) sweepLoop() {
	t := time.NewTicker(c.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if n := c.Sweep(); n > 0 {
				c.log.Debug("identity cache sweep", "evicted", n, "size", c.Len())
			}
		}
	}
}

// Shutdown stops the background sweep. Idempotent.
func (c *IdentityCache) Shutdown() {
	c.stopOnce.Do(func() { close(c.done) })
}
