package restore

import "time"

// EventType identifies a restore progress event
type EventType string

const (
	EventStarted       EventType = "started"
	EventSaved         EventType = "saved"
	EventAppSpawned    EventType = "app_spawned"
	EventSpawnFailed   EventType = "spawn_failed"
	EventCommand       EventType = "command"
	EventCommandFailed EventType = "command_failed"
	EventFinished      EventType = "finished"
)

// Event is published to subscribers while a profile is saved or restored.
type Event struct {
	Type    EventType `json:"type"`
	Profile string    `json:"profile"`
	Time    time.Time `json:"time"`
	Command string    `json:"command,omitempty"`
	Target  int64     `json:"target,omitempty"`
	Argv    []string  `json:"argv,omitempty"`
	Error   string    `json:"error,omitempty"`
	Report  *Report   `json:"report,omitempty"`
}

// Subscribe adds a listener for restore events
func (r *Restorer) Subscribe() chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Event, 64)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel
func (r *Restorer) Unsubscribe(ch chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// publish delivers ev to every listener without blocking; slow listeners
// miss events.
func (r *Restorer) publish(ev Event) {
	ev.Time = r.clock.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, listener := range r.listeners {
		select {
		case listener <- ev:
		default:
			r.log.Debug().Str("event", string(ev.Type)).Msg("Listener channel full, dropping event")
		}
	}
}
