package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "doc-1.docx", want: "doc-1.docx"},
		{name: "simple prefix", prefix: "uploads", key: "doc-1.docx", want: "uploads/doc-1.docx"},
		{name: "prefix trailing slash", prefix: "uploads/", key: "doc-1.docx", want: "uploads/doc-1.docx"},
		{name: "prefix and key slashes", prefix: "/uploads/", key: "/doc-1.docx", want: "uploads/doc-1.docx"},
		{name: "nested prefix", prefix: "uploads/docx", key: "doc-1.docx", want: "uploads/docx/doc-1.docx"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"  uploads ": "uploads",
		"/uploads/":  "uploads",
	}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
