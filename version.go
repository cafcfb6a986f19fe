package labflow

// Version is the labflow release version, overridable at link time.
var Version = "0.4.1"
