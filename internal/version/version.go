package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set by ldflags during release builds.
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Info is printed by `filerelay version` and reported by /health.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   GetVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersion prefers the ldflags version and falls back to the module build info.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func (i Info) String() string {
	s := "filerelay " + i.Version
	if len(i.GitCommit) >= 7 {
		s += " (" + i.GitCommit[:7] + ")"
	}
	if i.BuildDate != "" {
		s += " built " + i.BuildDate
	}

	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}
