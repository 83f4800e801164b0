package ports

import (
	"context"
	"errors"
)

// MaxButtons is the most reply buttons one interactive message can carry.
const MaxButtons = 3

var ErrTooManyButtons = errors.New("too many reply buttons")

// Button is one reply button. ID comes back verbatim in the button-reply event.
type Button struct {
	ID    string
	Title string
}

// Messenger sends outbound chat messages. Every method returns the transport's
// message identifier. Transport failures are returned, never panicked.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	// SendImage sends an image by media reference (a transport media id or a URL).
	SendImage(ctx context.Context, to, mediaRef, caption string) (string, error)
	// SendButtons sends body with at most MaxButtons reply buttons.
	SendButtons(ctx context.Context, to, body string, buttons []Button) (string, error)
}

// Advisor answers a health question with a single-turn language-model completion.
type Advisor interface {
	Advise(ctx context.Context, question string) (string, error)
}

// TextRecognizer extracts text from an image. An unreadable image yields "".
type TextRecognizer interface {
	Recognize(ctx context.Context, imageRef string) (string, error)
}
