package cameraadapter

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
)

func TestMirrorHorizontalFlipsPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{G: 255, A: 255})
	src.Set(2, 0, color.RGBA{B: 255, A: 255})

	dst := MirrorHorizontal(src)

	left := dst.RGBAAt(0, 0)
	right := dst.RGBAAt(2, 0)
	if left.B != 255 || right.R != 255 {
		t.Fatalf("expected left/right swap, got left %+v right %+v", left, right)
	}
	middle := dst.RGBAAt(1, 0)
	if middle.G != 255 {
		t.Fatalf("expected middle pixel unchanged, got %+v", middle)
	}
}

func TestMirrorHorizontalNonZeroOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 4, 3))
	src.Set(2, 2, color.RGBA{R: 255, A: 255})
	src.Set(3, 2, color.RGBA{B: 255, A: 255})

	dst := MirrorHorizontal(src)
	if got := dst.RGBAAt(2, 2); got.B != 255 {
		t.Fatalf("expected blue at left edge, got %+v", got)
	}
	if got := dst.RGBAAt(3, 2); got.R != 255 {
		t.Fatalf("expected red at right edge, got %+v", got)
	}
}

func TestProviderRejectsEmptyCommand(t *testing.T) {
	if _, err := NewProvider("   ", nil); err == nil {
		t.Fatalf("expected error for empty capture command")
	}
}

func TestProviderExclusiveOpen(t *testing.T) {
	provider, err := NewProvider("true", nil)
	if err != nil {
		t.Fatalf("new provider failed: %v", err)
	}

	device, err := provider.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := provider.Open(context.Background()); !errors.Is(err, domainerrors.ErrCameraBusy) {
		t.Fatalf("expected ErrCameraBusy, got %v", err)
	}

	if err := device.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// Close is idempotent and the device is reusable after release.
	if err := device.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	second, err := provider.Open(context.Background())
	if err != nil {
		t.Fatalf("re-open after close failed: %v", err)
	}
	_ = second.Close()
}

func TestCaptureAfterCloseFails(t *testing.T) {
	provider, err := NewProvider("true", nil)
	if err != nil {
		t.Fatalf("new provider failed: %v", err)
	}
	device, err := provider.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := device.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := device.Capture(context.Background()); !errors.Is(err, domainerrors.ErrCameraNotHeld) {
		t.Fatalf("expected ErrCameraNotHeld, got %v", err)
	}
}
