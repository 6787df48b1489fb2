package keys

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "Plain", in: "notes/todo", want: "notes/todo"},
		{name: "Leading And Trailing Slashes", in: "/notes/todo/", want: "notes/todo"},
		{name: "Repeated Slashes", in: "notes///todo", want: "notes/todo"},
		{name: "Whitespace", in: "  notes/todo\n", want: "notes/todo"},
		{name: "Backslashes", in: `notes\todo`, want: "notes/todo"},
		{name: "Dashes Are Not Slashes", in: "notes-todo", want: "notes-todo"},
		{name: "Dots Are Opaque", in: "a/../b", want: "a/../b"},
		{name: "Unicode", in: "notizen/über", want: "notizen/über"},
		{name: "Inner Spaces Kept", in: "my notes/day 1", want: "my notes/day 1"},
		{name: "Empty", in: "", wantErr: true},
		{name: "Only Slashes", in: "///", wantErr: true},
		{name: "Only Whitespace", in: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q; want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
