package pubqueue

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// pubqueue.css for the default admin views.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
