package memory

import (
	"context"
	"sync"

	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

// CameraProvider is a fake exclusive camera. It counts opens and closes so
// tests can assert that every acquisition was released.
type CameraProvider struct {
	mu     sync.Mutex
	held   bool
	opens  int
	closes int
	frame  []byte
}

func NewCameraProvider() *CameraProvider {
	return &CameraProvider{frame: []byte("frame-bytes")}
}

func (p *CameraProvider) Open(_ context.Context) (ports.Camera, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held {
		return nil, domainerrors.ErrCameraBusy
	}
	p.held = true
	p.opens++
	return &fakeCamera{provider: p}, nil
}

func (p *CameraProvider) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

func (p *CameraProvider) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *CameraProvider) Held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

func (p *CameraProvider) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = false
	p.closes++
}

type fakeCamera struct {
	provider *CameraProvider

	mu     sync.Mutex
	closed bool
}

func (c *fakeCamera) Capture(_ context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domainerrors.ErrCameraNotHeld
	}
	return c.provider.frame, nil
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.provider.release()
	return nil
}
