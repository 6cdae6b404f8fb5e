package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
)

const streamBufferSize = 16

// ActivityStreamService fans appended activities out to websocket
// subscribers. When a NATS connection is configured, events are bridged
// between nodes so subscribers see activity recorded anywhere.
type ActivityStreamService interface {
	ActivityPublisher
	Subscribe(courseID uint) (<-chan dto.ActivityResponse, func())
	Start(ctx context.Context)
}

type activityEvent struct {
	Source   string               `json:"source"`
	Activity dto.ActivityResponse `json:"activity"`
	SentAt   time.Time            `json:"sent_at"`
}

type activityStreamService struct {
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string

	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.ActivityResponse]struct{}
}

// NewActivityStreamService constructs the realtime activity stream. The NATS
// connection may be nil for single-node deployments.
func NewActivityStreamService(natsConn *nats.Conn, subject string, logger zerolog.Logger) ActivityStreamService {
	return &activityStreamService{
		nats:        natsConn,
		subject:     subject,
		logger:      logger.With().Str("component", "activity_stream_service").Logger(),
		nodeID:      uuid.NewString(),
		subscribers: make(map[uint]map[chan dto.ActivityResponse]struct{}),
	}
}

func (s *activityStreamService) Start(ctx context.Context) {
	if s.nats == nil || s.subject == "" {
		return
	}
	sub, err := s.nats.Subscribe(s.subject, func(msg *nats.Msg) {
		var event activityEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Warn().Err(err).Msg("dropping malformed activity event")
			return
		}
		if event.Source == s.nodeID {
			return
		}
		s.fanOut(event.Activity)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to activity events subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain activity event subscription")
		}
	}()
}

// PublishActivity delivers the activity to local subscribers and, when
// configured, to the cluster subject. Delivery is best effort; a slow
// subscriber loses events rather than blocking the append path.
func (s *activityStreamService) PublishActivity(ctx context.Context, activity models.Activity) {
	response := dto.NewActivityResponse(activity)
	s.fanOut(response)

	if s.nats == nil || s.subject == "" {
		return
	}
	payload, err := json.Marshal(activityEvent{
		Source:   s.nodeID,
		Activity: response,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}
	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish activity event")
	}
}

// Subscribe registers a listener for one course. The returned cancel closes
// the channel and removes the subscription.
func (s *activityStreamService) Subscribe(courseID uint) (<-chan dto.ActivityResponse, func()) {
	channel := make(chan dto.ActivityResponse, streamBufferSize)

	s.mu.Lock()
	listeners, ok := s.subscribers[courseID]
	if !ok {
		listeners = make(map[chan dto.ActivityResponse]struct{})
		s.subscribers[courseID] = listeners
	}
	listeners[channel] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if listeners, ok := s.subscribers[courseID]; ok {
			if _, present := listeners[channel]; present {
				delete(listeners, channel)
				close(channel)
			}
			if len(listeners) == 0 {
				delete(s.subscribers, courseID)
			}
		}
		s.mu.Unlock()
	}
	return channel, cancel
}

func (s *activityStreamService) fanOut(activity dto.ActivityResponse) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for channel := range s.subscribers[activity.CourseID] {
		select {
		case channel <- activity:
		default:
		}
	}
}
