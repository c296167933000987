package main

import "embed"

// embeddedWeb contains the page templates and static assets.
//
//go:embed web/*
var embeddedWeb embed.FS
