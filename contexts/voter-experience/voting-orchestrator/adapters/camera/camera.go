package cameraadapter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

const jpegQuality = 90

// Provider owns the single kiosk camera. The device is exclusive: Open
// fails with ErrCameraBusy until the previous handle is closed. Frames are
// produced by a configurable capture command (fswebcam, ffmpeg, ...) that
// writes one encoded image to stdout.
type Provider struct {
	command []string
	logger  *slog.Logger

	mu   sync.Mutex
	held bool
}

func NewProvider(captureCommand string, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	argv := strings.Fields(captureCommand)
	if len(argv) == 0 {
		return nil, fmt.Errorf("camera capture command is empty")
	}
	return &Provider{command: argv, logger: logger}, nil
}

func (p *Provider) Open(_ context.Context) (ports.Camera, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held {
		return nil, domainerrors.ErrCameraBusy
	}
	p.held = true
	p.logger.Info("camera device opened",
		"event", "camera_device_opened",
		"module", "voter-experience/voting-orchestrator",
		"layer", "adapter",
		"command", p.command[0],
	)
	return &device{provider: p}, nil
}

func (p *Provider) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = false
}

type device struct {
	provider *Provider

	mu     sync.Mutex
	closed bool
}

// Capture runs the capture command and returns one still frame, mirrored
// horizontally so the submitted image matches the live preview orientation.
func (d *device) Capture(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, domainerrors.ErrCameraNotHeld
	}
	argv := d.provider.command
	d.mu.Unlock()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("capture command failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	img, _, err := image.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode captured frame: %w", err)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, MirrorHorizontal(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode mirrored frame: %w", err)
	}
	return out.Bytes(), nil
}

// Close releases the device. Safe to call more than once.
func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.provider.release()
	d.provider.logger.Info("camera device closed",
		"event", "camera_device_closed",
		"module", "voter-experience/voting-orchestrator",
		"layer", "adapter",
	)
	return nil
}

// MirrorHorizontal flips an image left-to-right.
func MirrorHorizontal(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(bounds.Max.X-1-(x-bounds.Min.X), y, src.At(x, y))
		}
	}
	return dst
}
