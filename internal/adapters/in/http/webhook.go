package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"pharmadelivery/internal/core/application/dialogue"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/generated/servers"
	"pharmadelivery/internal/observability"

	"github.com/labstack/echo/v4"
)

const (
	maxEnvelopeBytes = 1 << 20
	subscribeMode    = "subscribe"
)

// VerifyWebhook handles the GET /webhook subscription handshake.
func (s *Server) VerifyWebhook(ctx echo.Context, params servers.VerifyWebhookParams) error {
	if params.HubMode != subscribeMode || s.cfg.VerifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(params.HubVerifyToken), []byte(s.cfg.VerifyToken)) != 1 {
		s.logger.WarnContext(ctx.Request().Context(), "webhook verification refused", "mode", params.HubMode)
		return ctx.NoContent(http.StatusForbidden)
	}
	return ctx.String(http.StatusOK, params.HubChallenge)
}

// ReceiveWebhook handles POST /webhook. The envelope is validated against
// its schema, acknowledged, and every message in it is dispatched in the
// background.
func (s *Server) ReceiveWebhook(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxEnvelopeBytes))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Unreadable request body")
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid JSON")
	}
	if err := s.envelope.VisitJSON(raw); err != nil {
		s.logger.WarnContext(reqCtx, "malformed envelope", "error", err)
		return errorJSON(ctx, http.StatusBadRequest, "Malformed envelope")
	}

	var env servers.WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Malformed envelope")
	}

	for _, ev := range toEvents(env, s.now()) {
		if !s.limiter.Allow(ev.From) {
			observability.RateLimitRejectedTotal.Inc()
			s.logger.WarnContext(reqCtx, "sender rate limited", "from", ev.From, "message", ev.ID)
			continue
		}
		s.dispatchAsync(reqCtx, ev)
	}
	return ctx.NoContent(http.StatusOK)
}

func (s *Server) dispatchAsync(parent context.Context, ev dialogue.Event) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.DispatchTimeout)
		defer cancel()
		if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "event rejected", "from", ev.From, "type", string(ev.Type), "error", err)
		}
	}()
}

// toEvents flattens an envelope into events. Status callbacks carry no
// messages and yield nothing.
func toEvents(env servers.WebhookEnvelope, now time.Time) []dialogue.Event {
	var events []dialogue.Event
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			if change.Value.Messages == nil {
				continue
			}
			names := profileNames(change.Value)
			for _, m := range *change.Value.Messages {
				ev := toEvent(m, now)
				ev.ProfileName = names[m.From]
				events = append(events, ev)
			}
		}
	}
	return events
}

func profileNames(v servers.WebhookValue) map[string]string {
	names := make(map[string]string)
	if v.Contacts == nil {
		return names
	}
	for _, c := range *v.Contacts {
		if c.WaId != nil && c.Profile != nil && c.Profile.Name != nil {
			names[*c.WaId] = *c.Profile.Name
		}
	}
	return names
}

func toEvent(m servers.WebhookMessage, now time.Time) dialogue.Event {
	ev := dialogue.Event{
		ID:         m.Id,
		From:       m.From,
		Type:       dialogue.EventUnsupported,
		ReceivedAt: receivedAt(m.Timestamp, now),
	}

	switch m.Type {
	case "text":
		if m.Text != nil {
			ev.Type = dialogue.EventText
			ev.Text = m.Text.Body
		}
	case "image":
		if m.Image != nil {
			ev.Type = dialogue.EventImage
			ev.MediaRef = m.Image.Id
		}
	case "location":
		if m.Location != nil {
			if p, err := kernel.NewGeoPoint(m.Location.Latitude, m.Location.Longitude); err == nil {
				ev.Type = dialogue.EventLocation
				ev.Location = &p
			}
		}
	case "interactive":
		if m.Interactive != nil && m.Interactive.ButtonReply != nil {
			ev.Type = dialogue.EventButton
			ev.ButtonID = m.Interactive.ButtonReply.Id
		}
	case "button":
		if m.Button != nil && m.Button.Payload != nil {
			ev.Type = dialogue.EventButton
			ev.ButtonID = *m.Button.Payload
		}
	case "audio", "voice":
		ev.Type = dialogue.EventAudio
		if m.Audio != nil && m.Audio.Id != nil {
			ev.MediaRef = *m.Audio.Id
		}
	}
	return ev
}

func receivedAt(ts *string, now time.Time) time.Time {
	if ts == nil {
		return now
	}
	sec, err := strconv.ParseInt(*ts, 10, 64)
	if err != nil {
		return now
	}
	return time.Unix(sec, 0).UTC()
}
