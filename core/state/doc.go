// Package state provides a lightweight per-user session store for
// multi-step dialogues. It knows nothing about Telegram so domain code can
// drive it directly.
package state
