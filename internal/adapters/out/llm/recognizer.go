package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"pharmadelivery/internal/core/ports"

	"github.com/openai/openai-go"
)

const (
	recognizerPrompt = `Transcris le texte lisible de cette ordonnance médicale, ligne par ligne.
N'ajoute aucun commentaire. Si l'image ne contient pas de texte lisible, réponds exactement: ` + unreadable
	unreadable = "ILLISIBLE"
)

// MediaSource downloads inbound media by transport reference.
type MediaSource interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// Recognizer reads prescription photos with a vision-capable model.
type Recognizer struct {
	completer completer
	media     MediaSource
	logger    *slog.Logger
}

var _ ports.TextRecognizer = (*Recognizer)(nil)

func NewRecognizer(cfg Config, media MediaSource, logger *slog.Logger) (*Recognizer, error) {
	c, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}
	return &Recognizer{completer: c, media: media, logger: logger.With("component", "llm_recognizer")}, nil
}

// Recognize sends URLs as-is and inlines transport media ids as data URLs.
// An unreadable image yields "".
func (r *Recognizer) Recognize(ctx context.Context, imageRef string) (string, error) {
	url, err := r.imageURL(ctx, imageRef)
	if err != nil {
		return "", err
	}

	text, err := r.completer.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(recognizerPrompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    url,
				Detail: "high",
			}),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", imageRef, err)
	}
	if strings.EqualFold(text, unreadable) {
		r.logger.InfoContext(ctx, "image unreadable", "ref", imageRef)
		return "", nil
	}
	return text, nil
}

func (r *Recognizer) imageURL(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref, nil
	}
	if r.media == nil {
		return "", fmt.Errorf("recognize %s: no media source for transport references", ref)
	}

	data, mime, err := r.media.DownloadMedia(ctx, ref)
	if err != nil {
		return "", err
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
