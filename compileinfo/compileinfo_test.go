package compileinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.18",
		Path:      "github.com/carbocation/segiou/cmd/pixeliou",
		Main:      debug.Module{Path: "github.com/carbocation/segiou", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-06-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if info.Commit != "abc123" || !info.Modified || info.Module != "github.com/carbocation/segiou" {
		t.Errorf("unexpected %+v", info)
	}

	s := info.String()
	if !strings.Contains(s, "pixeliou") || !strings.Contains(s, "modified after that commit") {
		t.Errorf("unexpected description %q", s)
	}

	if s := (CompileInfo{}).String(); !strings.Contains(s, "No build information") {
		t.Errorf("unexpected empty description %q", s)
	}
}
