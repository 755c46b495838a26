// Package calendar creates Google Calendar events for confirmed bookings.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	contractx "github.com/voxcal/voxcal/agent/contract"
)

type Config struct {
	ClientID     string `envconfig:"CLIENT_ID" split_words:"true"`
	ClientSecret string `envconfig:"CLIENT_SECRET" split_words:"true"`
	RefreshToken string `envconfig:"REFRESH_TOKEN" split_words:"true"`
	CalendarID   string `envconfig:"CALENDAR_ID" split_words:"true" default:"primary"`
	// MaxAttempts bounds creation retries for transient API failures.
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"2"`
}

// Service implements the EventCreator contract against the Google Calendar
// API. Authentication uses either the configured refresh token or, when the
// event carries one, a caller-scoped access token.
type Service struct {
	cfg Config
}

var _ contractx.EventCreator = (*Service)(nil)

func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.CalendarID) == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Service{cfg: cfg}, nil
}

// CreateEvent creates one event, retrying transient failures. All failures
// surface as the single ErrCalendarCreate kind.
func (s *Service) CreateEvent(ctx context.Context, ev contractx.CalendarEvent) (contractx.CreatedEvent, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return contractx.CreatedEvent{}, fmt.Errorf("%w: event title is required", contractx.ErrCalendarCreate)
	}
	if ev.Start.IsZero() {
		return contractx.CreatedEvent{}, fmt.Errorf("%w: event start is required", contractx.ErrCalendarCreate)
	}

	duration := ev.Duration
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		created, err := s.insert(ctx, ev, duration)
		if err == nil {
			log.Info().Str("event_id", created.EventID).Time("start", ev.Start).Msg("calendar event created")
			return created, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("calendar event creation attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	return contractx.CreatedEvent{}, fmt.Errorf("%w: %v", contractx.ErrCalendarCreate, lastErr)
}

func (s *Service) insert(ctx context.Context, ev contractx.CalendarEvent, duration time.Duration) (contractx.CreatedEvent, error) {
	svc, err := s.service(ctx, ev.AccessToken)
	if err != nil {
		return contractx.CreatedEvent{}, err
	}

	end := ev.Start.Add(duration)
	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
	}

	created, err := svc.Events.Insert(s.cfg.CalendarID, body).Context(ctx).Do()
	if err != nil {
		return contractx.CreatedEvent{}, fmt.Errorf("insert event: %w", err)
	}

	return contractx.CreatedEvent{
		EventID:  created.Id,
		HTMLLink: created.HtmlLink,
		Status:   created.Status,
	}, nil
}

func (s *Service) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	ts, err := s.tokenSource(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return svc, nil
}

func (s *Service) tokenSource(ctx context.Context, accessToken string) (oauth2.TokenSource, error) {
	if token := strings.TrimSpace(accessToken); token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
	}

	if strings.TrimSpace(s.cfg.ClientID) == "" ||
		strings.TrimSpace(s.cfg.ClientSecret) == "" ||
		strings.TrimSpace(s.cfg.RefreshToken) == "" {
		return nil, errors.New("google oauth credentials are not configured")
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     googleauth.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.cfg.RefreshToken}), nil
}
