package version

// Version is overridden at build time via -ldflags "-X skillwatch/internal/version.Version=...".
var Version = "dev"
