package buildinfo

// These variables are meant to be stamped via -ldflags at build time:
//
//	-X 'github.com/felipevm/vendasbot/core/buildinfo.Version=v0.4.0'
//	-X 'github.com/felipevm/vendasbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/felipevm/vendasbot/core/buildinfo.Date=2026-08-01T12:00:00Z'
//
// Defaults cover local development builds.
var (
	// Version is the semantic version or tag of the build.
	Version = "dev"
	// Commit is the source control revision of the build.
	Commit = "local"
	// Date is the build timestamp in RFC3339 format.
	Date = ""
)
