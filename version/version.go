package version

// Version defines the main version number that is being run at the moment.
// This will be filled in by the compiler.
var Version = "0.0.0-no-proper-build"

// BuildDate defines the build date. This will be filled in by the compiler.
var BuildDate string
