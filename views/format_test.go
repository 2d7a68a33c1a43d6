package views

import "testing"

func TestFormatDatetime(t *testing.T) {
	tests := []struct {
		ts   int64
		want string
	}{
		{0, "1970-01-01 @ 00:00"},
		{1700000000, "2023-11-14 @ 22:13"},
		{1234567890, "2009-02-13 @ 23:31"},
	}
	for _, tt := range tests {
		if got := FormatDatetime(tt.ts); got != tt.want {
			t.Errorf("FormatDatetime(%d) = %q, want %q", tt.ts, got, tt.want)
		}
	}
}

func TestGravatarURL(t *testing.T) {
	// md5("a@b.com")
	want := "https://www.gravatar.com/avatar/357a20e8c56e69d6f9734d23ef9517e8?d=identicon&s=80"
	if got := GravatarURL("a@b.com", 0); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if GravatarURL(" A@B.com ", 80) != GravatarURL("a@b.com", 80) {
		t.Error("email should be trimmed and lowercased")
	}
	if GravatarURL("a@b.com", 80) == GravatarURL("c@d.com", 80) {
		t.Error("different emails should give different avatars")
	}
	if got := GravatarURL("a@b.com", 48); got[len(got)-5:] != "&s=48" {
		t.Errorf("expected requested size, got %q", got)
	}
}
