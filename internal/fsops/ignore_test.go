package fsops

import "testing"

func TestIsFileIgnored(t *testing.T) {
	root := "/ws"
	cases := []struct {
		name     string
		path     string
		absolute []string
		relative []string
		want     bool
	}{
		{"no patterns", "/ws/src/a.txt", nil, nil, false},
		{"absolute prefix", "/ws/vendor/a.txt", []string{"/vendor"}, nil, true},
		{"absolute exact", "/ws/vendor", []string{"/vendor"}, nil, true},
		{"absolute not a prefix of sibling", "/ws/vendored/a.txt", []string{"/vendor"}, nil, false},
		{"absolute only at root", "/ws/src/vendor/a.txt", []string{"/vendor"}, nil, false},
		{"relative anywhere", "/ws/src/node_modules/lib/a.js", nil, []string{"node_modules"}, true},
		{"relative at root", "/ws/node_modules/a.js", nil, []string{"node_modules"}, true},
		{"relative matches whole segment only", "/ws/node_modules_backup/a.js", nil, []string{"node_modules"}, false},
		{"relative matches leaf", "/ws/src/generated", nil, []string{"generated"}, true},
		{"outside root never ignored", "/other/vendor/a.txt", []string{"/vendor"}, []string{"vendor"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsFileIgnored(root, tc.path, tc.absolute, tc.relative)
			if got != tc.want {
				t.Fatalf("IsFileIgnored(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}
