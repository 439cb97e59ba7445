package handlers

import (
	"net/http"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/r6lens/r6lens/internal/config"
)

// Build metadata, injected from main via SetVersionInfo.
var (
	AppName      = config.AppName
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"
)

func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

// VersionResponse is the /version document and the `version --json` output.
type VersionResponse struct {
	App          AppInfo       `json:"app"`
	Upstream     *UpstreamInfo `json:"upstream,omitempty"`
	Dependencies DepInfo       `json:"dependencies"`
	Runtime      RuntimeInfo   `json:"runtime"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// UpstreamInfo identifies the stats API this build talks to. It is omitted
// until a configuration has been loaded.
type UpstreamInfo struct {
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// CurrentVersion assembles build, upstream, dependency and runtime details.
func CurrentVersion() VersionResponse {
	deps := crucible.GetVersion()
	resp := VersionResponse{
		App: AppInfo{
			Name:      AppName,
			Version:   AppVersion,
			Commit:    AppCommit,
			BuildDate: AppBuildDate,
			GoVersion: runtime.Version(),
		},
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	}
	if cfg := config.GetConfig(); cfg != nil {
		resp.Upstream = &UpstreamInfo{BaseURL: cfg.API.BaseURL, UserAgent: cfg.API.UserAgent}
	}
	return resp
}

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentVersion())
}
