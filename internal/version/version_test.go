package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Contains(t, info.String(), "docscan "+Version)
}

func TestFillFromBuildSettings(t *testing.T) {
	info := BuildInfo{GitCommit: "unknown", BuildDate: "unknown"}
	fillFromBuildSettings(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2024-05-06T07:08:09Z"},
	})
	assert.Equal(t, "0123456789ab", info.GitCommit)
	assert.Equal(t, "2024-05-06T07:08:09Z", info.BuildDate)

	// Values injected at link time are kept.
	info = BuildInfo{GitCommit: "abc", BuildDate: "today"}
	fillFromBuildSettings(&info, []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}})
	assert.Equal(t, "abc", info.GitCommit)
	assert.Equal(t, "today", info.BuildDate)
}
