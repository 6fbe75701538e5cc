// Package server exposes a bubble canvas over HTTP and WebSocket.
//
// One goroutine owns the [canvas.Canvas]. HTTP handlers, WebSocket sessions
// and the size notification subscriber submit operations to it and wait for
// the resulting frame, so every operation finishes before the next starts.
// Changed frames are pushed to every connected WebSocket client.
//
// # Routes
//
//	GET  /healthz
//	GET  /api/version
//	GET  /api/coins/search?query=
//	GET  /api/bubbles
//	POST /api/bubbles               select an item (add or grow)
//	GET  /api/bubbles/{id}
//	POST /api/bubbles/{id}/move     {"x":..,"y":..}
//	PUT  /api/viewport              {"width":..,"height":..}
//	GET  /api/canvas.svg
//	GET  /api/stats                 counters, when Options.Metrics is set
//	GET  /ws
//
// Errors are returned as {"code": "...", "message": "..."} with the status
// from [errors.HTTPStatus].
//
// # Persistence
//
// Selections are written to the configured [sizes.Store] and announced on
// the [notify.Bus] in the background. Events published by other instances
// replace the local size of the bubble they name.
package server
