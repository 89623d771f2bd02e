package artifact

import (
	"context"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"

	"photobooth/internal/logging"
	"photobooth/internal/services"
)

// DefaultSize is the rendered QR edge in pixels.
const DefaultSize = 500

// Rendered is a QR artifact ready for display.
type Rendered struct {
	URL    string
	Image  image.Image
	Width  int
	Height int
}

// Surface displays a rendered artifact.
type Surface interface {
	Show(ctx context.Context, artifact Rendered) error
}

// Publisher generates QR artifacts and pushes them to a surface.
type Publisher struct {
	size    int
	box     int
	surface Surface
	logger  *slog.Logger
}

// NewPublisher returns a publisher rendering size-pixel codes scaled into a
// box-pixel square.
func NewPublisher(size, box int, surface Surface, logger *slog.Logger) *Publisher {
	if size <= 0 {
		size = DefaultSize
	}
	if box <= 0 {
		box = size
	}
	return &Publisher{
		size:    size,
		box:     box,
		surface: surface,
		logger:  logging.NewComponentLogger(logger, "artifact"),
	}
}

// Publish encodes url and shows it on the surface.
func (p *Publisher) Publish(ctx context.Context, url string) (Rendered, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Rendered{}, services.Wrap(services.ErrGenerationFailed, "publish", "encode", "empty url", nil)
	}
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return Rendered{}, services.Wrap(services.ErrGenerationFailed, "publish", "encode", "", err)
	}
	img := code.Image(p.size)
	if img == nil {
		return Rendered{}, services.Wrap(services.ErrGenerationFailed, "publish", "render", "encoder returned no image", nil)
	}

	bounds := img.Bounds()
	w, h := FitToBox(bounds.Dx(), bounds.Dy(), p.box)
	if w != bounds.Dx() || h != bounds.Dy() {
		img = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}
	rendered := Rendered{URL: url, Image: img, Width: w, Height: h}

	if p.surface != nil {
		if err := p.surface.Show(ctx, rendered); err != nil {
			return Rendered{}, services.Wrap(services.ErrGenerationFailed, "publish", "show", "", err)
		}
	}
	logging.WithContext(ctx, p.logger).Info("artifact published",
		logging.String("video_url", url),
		logging.Int("width", w),
		logging.Int("height", h),
	)
	return rendered, nil
}

// FitToBox scales width x height so the longer side equals box, preserving
// the aspect ratio. Non-positive inputs yield (0, 0).
func FitToBox(width, height, box int) (int, int) {
	if width <= 0 || height <= 0 || box <= 0 {
		return 0, 0
	}
	if width <= height {
		w := int(float64(box) / float64(height) * float64(width))
		return max(w, 1), box
	}
	h := int(float64(box) / float64(width) * float64(height))
	return box, max(h, 1)
}
