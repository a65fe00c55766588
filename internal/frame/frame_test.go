package frame

import (
	"testing"
)

func TestFullName(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{
			name:  "empty",
			frame: Frame{},
			want:  "<unknown>",
		},
		{
			name:  "function only",
			frame: Frame{Function: "main"},
			want:  "main",
		},
		{
			name:  "package path",
			frame: Frame{Package: "/usr/lib/ruby/Array", Function: "each"},
			want:  "Array#each",
		},
		{
			name:  "module wins over package",
			frame: Frame{Module: "Kernel", Package: "lib/kernel", Function: "puts"},
			want:  "Kernel#puts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.FullName(); got != tt.want {
				t.Fatalf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Frame{Package: "app", Function: "run", Path: "/srv/app.rb", Line: 10}
	b := Frame{Package: "app", Function: "run", Path: "/srv/app.rb", Line: 12}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("line changes should not change the method identity")
	}
	c := Frame{Package: "app", Function: "stop"}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("different functions should have different fingerprints")
	}
	// An unknown package must not collide with a package named like the function.
	d := Frame{Function: "run"}
	e := Frame{Package: "run"}
	if d.Fingerprint() == e.Fingerprint() {
		t.Fatal("unknown fields should hash to a placeholder")
	}
}

func TestString(t *testing.T) {
	f := Frame{Package: "app", Function: "run", Path: "/srv/app.rb", Line: 10}
	if got, want := f.String(), "app#run (/srv/app.rb:10)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
