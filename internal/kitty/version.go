package kitty

// Version is the registry engine version, reported by the CLI.
const Version = "0.1.0"
