package version

// Version is the tool version reported by --version.
var Version = "0.2.0"
