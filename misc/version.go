// Package misc keeps build time information.
package misc

// Overwritten at build time with -ldflags "-X fluidcss/misc.version=...".
var (
	appName = "fluidcss"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
