package sanitize

import "testing"

func TestStripANSI(t *testing.T) {
	in := "\x1b[0;31m 42.1%\x1b[0m of 10MiB"
	want := " 42.1% of 10MiB"
	if got := StripANSI(in); got != want {
		t.Errorf("StripANSI(%q) = %q, want %q", in, got, want)
	}
}

func TestStripANSIPassthrough(t *testing.T) {
	in := "plain text, no escapes"
	if got := StripANSI(in); got != in {
		t.Errorf("StripANSI(%q) = %q, want unchanged", in, got)
	}
}

func TestErrorMessageRedactsPaths(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already exists",
			in:   "ERROR: File /srv/app/temp_downloads/abc.mp4 already exists",
			want: "ERROR: [redacted]",
		},
		{
			name: "unable to open",
			in:   "Unable to open file: /srv/app/temp_downloads/abc.mp4: permission denied",
			want: "[redacted] permission denied",
		},
		{
			name: "path suffix",
			in:   "download failed, path: /srv/app/temp_downloads/abc.mp4",
			want: "download failed, [redacted]",
		},
		{
			name: "ansi inside error",
			in:   "\x1b[31mnetwork timeout\x1b[0m",
			want: "network timeout",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorMessage(tc.in); got != tc.want {
				t.Errorf("ErrorMessage(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"My Video: Part 1!", 150, "My_Video_Part_1"},
		{"../../etc/passwd", 150, "etc_passwd"},
		{"   ", 150, "video"},
		{"", 150, "video"},
		{"song.mp3 (official)", 150, "song.mp3_official"},
	}
	for _, tc := range cases {
		if got := Filename(tc.in, tc.max); got != tc.want {
			t.Errorf("Filename(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestFilenameCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "abcdefgh"
	}
	got := Filename(long, 150)
	if len(got) > 150 {
		t.Errorf("Filename length = %d, want <= 150", len(got))
	}
}
