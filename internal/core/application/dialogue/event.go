// Package dialogue is the entry point of every inbound chat event. The
// Dispatcher serializes events per user, loads the user's conversation,
// routes the event by (step, intent) and stores the result.
package dialogue

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

type EventType string

const (
	EventText        EventType = "text"
	EventImage       EventType = "image"
	EventLocation    EventType = "location"
	EventButton      EventType = "button"
	EventAudio       EventType = "audio"
	EventUnsupported EventType = "unsupported"
)

// Event is one inbound message, already decoded from the transport envelope.
type Event struct {
	// ID is the transport message id, used to drop redelivered webhooks.
	ID          string
	From        string
	ProfileName string
	Type        EventType
	Text        string
	MediaRef    string
	Location    *kernel.GeoPoint
	ButtonID    string
	ReceivedAt  time.Time
}

func (e Event) Validate() error {
	var err error
	if e.From == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("sender"))
	}
	switch e.Type {
	case EventText:
		if e.Text == "" {
			err = errors.Join(err, errs.NewValueIsRequiredError("text"))
		}
	case EventImage:
		if e.MediaRef == "" {
			err = errors.Join(err, errs.NewValueIsRequiredError("media reference"))
		}
	case EventLocation:
		if e.Location == nil {
			err = errors.Join(err, errs.NewValueIsRequiredError("location"))
		}
	case EventButton:
		if e.ButtonID == "" {
			err = errors.Join(err, errs.NewValueIsRequiredError("button id"))
		}
	case EventAudio, EventUnsupported:
	default:
		err = errors.Join(err, errs.NewValueIsInvalidError("event type"))
	}
	return err
}
