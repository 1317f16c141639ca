// Package session owns the pool of live browser-automation sessions. It hands
// out exclusive, reusable handles under per-user and global concurrency caps
// and reclaims idle capacity with a background reaper.
package session
