package pressroom

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  Title  ", "trimmed-title"},
		{"Already-slugged", "already-slugged"},
		{"Symbols!@# Collapse$%^", "symbols-collapse"},
		{"Trailing punctuation?!", "trailing-punctuation"},
		{"MiXeD CaSe 123", "mixed-case-123"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIDListRoundTrip(t *testing.T) {
	tests := []struct {
		ids  []string
		list string
	}{
		{nil, ","},
		{[]string{"a"}, ",a,"},
		{[]string{"a", "b", "c"}, ",a,b,c,"},
		{[]string{" a ", "", "b"}, ",a,b,"},
	}
	for _, tt := range tests {
		if got := JoinIDList(tt.ids); got != tt.list {
			t.Errorf("JoinIDList(%v) = %q, want %q", tt.ids, got, tt.list)
		}
	}

	parsed := ParseIDList(",a,b,c,")
	if len(parsed) != 3 || parsed[0] != "a" || parsed[2] != "c" {
		t.Errorf("ParseIDList = %v, want [a b c]", parsed)
	}
	if got := ParseIDList(","); got != nil {
		t.Errorf("ParseIDList(\",\") = %v, want nil", got)
	}
}

func TestRemoveID(t *testing.T) {
	got := RemoveID([]string{"a", "b", "a", "c"}, "a")
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("RemoveID = %v, want [b c]", got)
	}
	if got := RemoveID(nil, "a"); got != nil {
		t.Errorf("RemoveID(nil) = %v, want nil", got)
	}
}
