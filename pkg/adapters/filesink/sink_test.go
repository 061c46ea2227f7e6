package filesink

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/ports"
)

func TestSink_SaveRawFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)

	if !sink.Enabled() {
		t.Error("file sink should report enabled")
	}

	// A 2x1 RGBA frame: red pixel then blue pixel.
	data := []byte{
		0xFF, 0x00, 0x00, 0xFF,
		0x00, 0x00, 0xFF, 0xFF,
	}
	if err := sink.SaveRawFrame(3, ports.FormatRGBA, 2, 1, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join("debug", "frames", "frame-000003.png")
	raw, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s to be written: %v", path, err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	_, _, b, _ := img.At(1, 0).RGBA()
	if r != 0xFFFF || b != 0xFFFF {
		t.Errorf("pixel values lost in round trip: r=%04x b=%04x", r, b)
	}
}

func TestSink_SaveRawFrame_BGRxSwizzle(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)

	// One BGRx pixel holding pure red.
	data := []byte{0x00, 0x00, 0xFF, 0x00}
	if err := sink.SaveRawFrame(0, ports.FormatBGRx, 1, 1, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := fs.ReadFile(filepath.Join("debug", "frames", "frame-000000.png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r != 0xFFFF || g != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("expected opaque red, got rgba(%04x, %04x, %04x, %04x)", r, g, b, a)
	}
}

func TestSink_SaveRawFrame_SizeMismatch(t *testing.T) {
	sink := New("debug", mocks.NewFileSystem())
	if err := sink.SaveRawFrame(0, ports.FormatRGBA, 2, 2, make([]byte, 3)); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestSink_SaveSessionJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)

	if err := sink.SaveSessionJSON([]byte(`{"encoded": 10}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := fs.ReadFile(filepath.Join("debug", "session.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(data, []byte("encoded")) {
		t.Errorf("unexpected content: %s", data)
	}
}
