package delivery_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"photobooth/internal/artifact"
	"photobooth/internal/notifications"
	"photobooth/internal/upload"
)

type fakeStills struct {
	img image.Image
}

func (f fakeStills) Still() (image.Image, bool) {
	return f.img, f.img != nil
}

type countingEncoder struct {
	calls atomic.Int32
	err   error
}

func (e *countingEncoder) EncodeJPEG(img image.Image) ([]byte, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []byte("jpeg-bytes"), nil
}

type fakeLocator struct {
	path  string
	err   error
	calls atomic.Int32

	// find, when set, answers each lookup by its 1-based call number.
	find func(call int32) (string, bool, error)
}

func (l *fakeLocator) FindNewest() (string, bool, error) {
	call := l.calls.Add(1)
	if l.find != nil {
		return l.find(call)
	}
	if l.err != nil {
		return "", false, l.err
	}
	return l.path, l.path != "", nil
}

type fakeUploader struct {
	mu      sync.Mutex
	results []upload.Result
	calls   int
	media   []upload.Media

	started chan struct{}
	release chan struct{}
}

func (u *fakeUploader) Name() string { return "fake" }

func (u *fakeUploader) Upload(ctx context.Context, m upload.Media) upload.Result {
	u.mu.Lock()
	u.calls++
	u.media = append(u.media, m)
	idx := u.calls - 1
	started, release := u.started, u.release
	u.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.results) == 0 {
		return upload.Result{OK: true, PublicURL: "https://cdn.example.com/video.mp4"}
	}
	if idx >= len(u.results) {
		idx = len(u.results) - 1
	}
	return u.results[idx]
}

func (u *fakeUploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

type fakePublisher struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, url string) (artifact.Rendered, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	if p.err != nil {
		return artifact.Rendered{}, p.err
	}
	return artifact.Rendered{URL: url, Width: 500, Height: 500}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []notifications.Payload
	results  []notifications.Result
}

func (n *fakeNotifier) Send(ctx context.Context, payload notifications.Payload) notifications.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	if len(n.results) == 0 {
		return notifications.Result{OK: true, StatusCode: 200}
	}
	idx := len(n.payloads) - 1
	if idx >= len(n.results) {
		idx = len(n.results) - 1
	}
	return n.results[idx]
}

func (n *fakeNotifier) Payloads() []notifications.Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.Payload(nil), n.payloads...)
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

var errBoom = errors.New("boom")
