// Package observer provides ready-made event-bus consumers. Console
// drains an eventbus.Subscription and logs each event through a
// pkg/logging.Logger at a level chosen by the event's kind — the same
// role the teacher's ConsoleObserver played against the old push-model
// Manager, now pulling from the ring-buffer bus instead of being
// pushed to from a per-event goroutine.
package observer
