// Package io reads and writes canvas state and replay scripts.
//
// # State
//
// A [State] is a saved canvas: viewport, fill ratio and bubbles.
//
//	{
//	  "width": 1000,
//	  "height": 800,
//	  "fillRatio": 0.5,
//	  "bubbles": [
//	    {"id": "bitcoin", "baseSize": 60, "x": 310, "y": 375, "meta": {"symbol": "BTC"}}
//	  ]
//	}
//
// Use [ImportState] / [ReadState] to load one and [ExportState] /
// [WriteState] to save one. [Snapshot] captures a live canvas and
// [State.Canvas] rebuilds one.
//
// # Scripts
//
// A [Script] is a sequence of canvas events (select, move, resize, size)
// in JSON or YAML, used by the replay command and in tests:
//
//	width: 1000
//	height: 800
//	events:
//	  - {op: select, id: bitcoin}
//	  - {op: select, id: bitcoin}
//	  - {op: move, id: bitcoin, x: 100, y: 100}
//	  - {op: resize, width: 600, height: 400}
//
// Readers validate input and wrap failures with the offending index or id.
package io
