package process

import "testing"

func TestUnifiedDiff(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{
			name:   "identical",
			before: "a\nb\n",
			after:  "a\nb\n",
			want:   "--- a/x.css\n+++ b/x.css\n",
		},
		{
			name:   "single line changed",
			before: "a\nb\nc\n",
			after:  "a\nB\nc\n",
			want:   "--- a/x.css\n+++ b/x.css\n@@ -2 +2 @@\n-b\n+B\n",
		},
		{
			name:   "separate hunks",
			before: "a\nb\nc\nd\n",
			after:  "A\nb\nc\nD\n",
			want:   "--- a/x.css\n+++ b/x.css\n@@ -1 +1 @@\n-a\n+A\n@@ -4 +4 @@\n-d\n+D\n",
		},
		{
			name:   "lines added",
			before: "a\nc\n",
			after:  "a\nb1\nb2\nc\n",
			want:   "--- a/x.css\n+++ b/x.css\n@@ -1,0 +2,2 @@\n+b1\n+b2\n",
		},
		{
			name:   "lines removed",
			before: "a\nb1\nb2\nc\n",
			after:  "a\nc\n",
			want:   "--- a/x.css\n+++ b/x.css\n@@ -2,2 +1,0 @@\n-b1\n-b2\n",
		},
		{
			name:   "no newline at end",
			before: "a\nb",
			after:  "a\nB",
			want:   "--- a/x.css\n+++ b/x.css\n@@ -2 +2 @@\n-b\n\\ No newline at end of file\n+B\n\\ No newline at end of file\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unifiedDiff("x.css", tt.before, tt.after); got != tt.want {
				t.Errorf("unifiedDiff() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestHunkRange(t *testing.T) {
	tests := []struct {
		start, count int
		want         string
	}{
		{5, 0, "4,0"},
		{5, 1, "5"},
		{5, 3, "5,3"},
		{1, 0, "0,0"},
	}
	for _, tt := range tests {
		if got := hunkRange(tt.start, tt.count); got != tt.want {
			t.Errorf("hunkRange(%d, %d) = %q, want %q", tt.start, tt.count, got, tt.want)
		}
	}
}
