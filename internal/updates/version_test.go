package updates

import "testing"

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "1.2.0", expected: "1.2.0"},
		{input: "v2.0.1", expected: "2.0.1"},
		{input: "1.2", expected: "1.2.0"},
		{input: "3", expected: "3.0.0"},
		{input: "1.3.0-rc.1+build.5", expected: "1.3.0-rc.1+build.5"},
		{input: "1.2.3.4", expected: "1.2.3.4"},
		{input: "1.2.3.0", expected: "1.2.3"},
		{input: "1.2.3.4-beta", expected: "1.2.3.4-beta"},
		{input: "1.2.3.4.5", wantErr: true},
		{input: "", wantErr: true},
		{input: "latest", wantErr: true},
		{input: "1.2.x", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			v, err := ParseVersion(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) expected error, got %v", tc.input, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tc.input, err)
			}
			if got := v.String(); got != tc.expected {
				t.Fatalf("ParseVersion(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     string
		expected int
	}{
		{"1.3.0", "1.2.0", 1},
		{"1.2.0", "1.2.0", 0},
		{"1.2.0", "1.3.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.2", "1.2.0", 0},
		{"2.0.0", "2.0.0-rc.1", 1},
		{"2.0.0-rc.2", "2.0.0-rc.10", -1},
		{"2.0.0-alpha", "2.0.0-alpha.1", -1},
		{"2.0.0-alpha.1", "2.0.0-alpha.beta", -1},
		{"2.0.0-beta", "2.0.0-alpha", 1},
		{"1.0.0+build.1", "1.0.0+build.2", 0},
		{"1.2.3.4", "1.2.3", 1},
		{"1.2.3.10", "1.2.3.9", 1},
		{"1.2.3.9", "1.2.4", -1},
		{"1.2.3.0", "1.2.3", 0},
	}

	for _, tc := range tests {
		a, err := ParseVersion(tc.a)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tc.a, err)
		}
		b, err := ParseVersion(tc.b)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tc.b, err)
		}
		if got := a.Compare(b); got != tc.expected {
			t.Errorf("Compare(%q, %q) = %d, expected %d", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestIsNewer(t *testing.T) {
	t.Parallel()

	if ok, err := IsNewer("1.3.0", "1.2.0"); err != nil || !ok {
		t.Fatalf("IsNewer(1.3.0, 1.2.0) = %v, %v; expected true", ok, err)
	}
	if ok, err := IsNewer("1.2.0", "1.2.0"); err != nil || ok {
		t.Fatalf("IsNewer(1.2.0, 1.2.0) = %v, %v; expected false", ok, err)
	}
	if ok, err := IsNewer("1.1.9", "1.2.0"); err != nil || ok {
		t.Fatalf("IsNewer(1.1.9, 1.2.0) = %v, %v; expected false", ok, err)
	}
	if ok, err := IsNewer("1.2.3.5", "1.2.3.4"); err != nil || !ok {
		t.Fatalf("IsNewer(1.2.3.5, 1.2.3.4) = %v, %v; expected true", ok, err)
	}
	if ok, err := IsNewer("garbage", "1.2.0"); err == nil || ok {
		t.Fatalf("IsNewer(garbage, 1.2.0) = %v, %v; expected error", ok, err)
	}
}
