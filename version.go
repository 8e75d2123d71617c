package lookout

// Version is the current release, overridden at build time with
// -ldflags "-X github.com/aretw0/lookout.Version=...".
var Version = "0.1.0"
