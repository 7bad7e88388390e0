package analytics

import (
	"context"
	"sync"
	"time"

	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/infrastructure/metrics"
	"fridgechef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// EventName is the closed set of accepted event names. Anything else is
// dropped at the door.
type EventName string

const (
	EventAppOpen             EventName = "app_open"
	EventPhotoUploaded       EventName = "photo_uploaded"
	EventManualInput         EventName = "manual_input_used"
	EventRecipesRequested    EventName = "recipes_requested"
	EventTokenSpent          EventName = "token_spent"
	EventGenerationCompleted EventName = "generation_completed"
)

var allowedEvents = map[EventName]struct{}{
	EventAppOpen:             {},
	EventPhotoUploaded:       {},
	EventManualInput:         {},
	EventRecipesRequested:    {},
	EventTokenSpent:          {},
	EventGenerationCompleted: {},
}

// Event is one usage record.
type Event struct {
	Name      EventName              `json:"name"`
	Payload   map[string]interface{} `json:"payload"`
	SessionID string                 `json:"sessionId"`
	TS        time.Time              `json:"ts"`
}

// Sink is the fire-and-forget event collector. Track never blocks and never
// fails the caller; delivery happens on a worker with batching and bounded
// backoff retries.
type Sink struct {
	cfg    *config.AnalyticsConfig
	client *resty.Client
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSink creates the sink and starts its delivery worker. A disabled
// config yields a sink whose Track is a no-op.
func NewSink(cfg *config.AnalyticsConfig) *Sink {
	s := &Sink{
		cfg:  cfg,
		done: make(chan struct{}),
	}
	if !cfg.Enabled {
		return s
	}

	s.client = resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(5 * time.Second)
	s.events = make(chan Event, cfg.BufferSize)

	s.wg.Add(1)
	go s.worker()

	common.LogInfo("event sink started",
		zap.String("endpoint", cfg.Endpoint),
		zap.Int("buffer_size", cfg.BufferSize),
	)
	return s
}

// Track enqueues an event. Non-blocking: a full buffer or unknown event
// name drops the event silently.
func (s *Sink) Track(name EventName, payload map[string]interface{}, sessionID string) {
	if s == nil || s.events == nil {
		return
	}
	if _, ok := allowedEvents[name]; !ok {
		return
	}

	ev := Event{
		Name:      name,
		Payload:   payload,
		SessionID: sessionID,
		TS:        time.Now().UTC(),
	}

	select {
	case s.events <- ev:
	default:
		metrics.EventsDropped.Inc()
	}
}

func (s *Sink) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, s.cfg.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.deliver(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			// Drain whatever is buffered, then a final flush.
			for {
				select {
				case ev := <-s.events:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

// deliver posts a batch with exponential backoff. Exhausted retries drop
// the batch; delivery must never ripple back into the pipeline.
func (s *Sink) deliver(batch []Event) {
	backoff := 200 * time.Millisecond

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-s.done:
				// Shutdown: one last immediate try below.
			}
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(map[string]interface{}{"events": batch}).
			Post("")
		cancel()

		if err == nil && resp.StatusCode() < 300 {
			return
		}
		common.LogDebug("event batch delivery failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	metrics.EventsDropped.Add(float64(len(batch)))
	common.LogWarn("event batch dropped after retries",
		zap.Int("batch_size", len(batch)),
	)
}

// Close flushes buffered events and stops the worker.
func (s *Sink) Close() {
	if s == nil || s.events == nil {
		return
	}
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}
