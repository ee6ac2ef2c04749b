// Package server provides the scoring harness around one fitted
// pipeline: a Gin HTTP server (HTTP/2 cleartext via h2c) exposing
// health, pipeline metadata, and single/batch apply endpoints, with
// optional bearer-token auth and hot reload of the pipeline artifact.
//
// The served pipeline is held behind an atomic pointer; the fsnotify
// watcher decodes a changed artifact off the request path and swaps it
// in atomically, so requests always see a coherent pipeline and a
// failed reload keeps the previous one.
package server
