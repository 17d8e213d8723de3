package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"short commit", Info{Version: "1.2.0", GitCommit: "3f2a9c1d8e7b"}, "1.2.0-3f2a9c1"},
		{"dirty", Info{Version: "1.2.0", GitCommit: "abc", Dirty: true}, "1.2.0-abc-dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: ""}, false},
		{Info{Version: "1.0.0", Dirty: true}, false},
		{Info{Version: "1.0.0"}, true},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v.IsRelease() = %v, want %v", tc.info, got, tc.want)
		}
	}
}

func TestGetPrefersLinkTimeValues(t *testing.T) {
	origVersion, origCommit, origBuild := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = origVersion, origCommit, origBuild })

	Version, GitCommit, BuildTime = "2.0.0", "feedbee", "2026-01-02T03:04:05Z"
	info := Get()
	if info.Version != "2.0.0" || info.GitCommit != "feedbee" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", info)
	}
}
