package transcoder

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConvertArgsVideoToAudio(t *testing.T) {
	args, err := convertArgs("/scratch/id_title.mp4", "/scratch/id_title.mp3")
	if err != nil {
		t.Fatalf("convertArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"-vn", "-c:a libmp3lame", "-q:a 2", "/scratch/id_title.mp3"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestConvertArgsAudioCopy(t *testing.T) {
	args, err := convertArgs("/scratch/a.mp3", "/scratch/b.mp3")
	if err != nil {
		t.Fatalf("convertArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:a copy") {
		t.Errorf("expected stream copy, got %s", joined)
	}
	if strings.Contains(joined, "libmp3lame") {
		t.Errorf("audio-to-audio must not re-encode: %s", joined)
	}
}

func TestConvertArgsRejectsOtherPairings(t *testing.T) {
	cases := [][2]string{
		{"a.mp3", "b.mp4"},
		{"a.mp4", "b.mp4"},
		{"a.webm", "b.mp3"},
		{"a.mp4", "b.wav"},
		{"noext", "b.mp3"},
	}
	for _, c := range cases {
		if _, err := convertArgs(c[0], c[1]); !errors.Is(err, ErrUnsupportedConversion) {
			t.Errorf("convertArgs(%q, %q) = %v, want ErrUnsupportedConversion", c[0], c[1], err)
		}
	}
}

func TestConvertUnsupportedNeverRunsTool(t *testing.T) {
	// A binary path that cannot exist: if the pairing check failed to fire
	// first, Convert would surface a ToolError instead.
	f := NewFFmpeg("/nonexistent/ffmpeg-binary")
	err := f.Convert(context.Background(), "in.webm", "out.mp3")
	if !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("Convert = %v, want ErrUnsupportedConversion", err)
	}
}
