package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"cmsadmin/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) actions(resource string) []events.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Action
	for _, ev := range p.events {
		if ev.Resource == resource {
			out = append(out, ev.Action)
		}
	}
	return out
}

type fakeBlobs struct {
	objects    map[string][]byte
	destroyed  []string
	putErr     error
	destroyErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[key] = data
	return "https://cdn.example.test/media-bucket/" + key, nil
}

func (b *fakeBlobs) Destroy(_ context.Context, key string) error {
	if b.destroyErr != nil {
		return b.destroyErr
	}
	b.destroyed = append(b.destroyed, key)
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobs) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, ok := b.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://cdn.example.test/signed/" + key + "?ttl=" + ttl.String(), nil
}

func pngUpload(name string) Upload {
	body := []byte("\x89PNG\r\n\x1a\nrest")
	return Upload{FileName: name, ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)}
}
