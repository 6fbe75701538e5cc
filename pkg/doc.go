// Package pkg provides the core libraries for Coinbubbles.
//
// # Overview
//
// Coinbubbles keeps a canvas of circular "bubbles", one per selected coin,
// free of overlaps. Selecting a coin again grows its bubble, dragging pins
// it while the others yield, and a global scale factor shrinks every bubble
// so that together they cover a fixed share of the viewport.
//
// The pkg directory is organized into four areas:
//
//  1. Core: [bubble], [layout] (overlap resolution and scaling) and
//     [canvas] (the stateful engine)
//  2. Output: [render] with [render/sink] (SVG, JSON) and [render/contact]
//     (Graphviz contact graphs), plus [io] for saved states and scripts
//  3. Infrastructure: [cache], [sizes] (persistent sizes), [notify] (size
//     change broadcasts), [config], [errors], [observability], [buildinfo]
//  4. Serving: [directory] and [integrations/coingecko] for coin search,
//     [server] for HTTP and WebSocket
//
// # Architecture
//
// The typical data flow of a selection:
//
//	Coin directory (CoinGecko or static sample)
//	         ↓
//	    [server] (single canvas goroutine)
//	         ↓
//	    [canvas] AddOrGrow → [layout] resolve + scale
//	         ↓
//	    WebSocket frame / SVG / JSON
//	         ↓
//	    [sizes] store → [notify] bus → other instances
//
// # Quick Start
//
//	cv := canvas.New(canvas.Options{Width: 1000, Height: 800})
//	cv.AddOrGrow("bitcoin", bubble.Metadata{Symbol: "BTC"}, 0)
//	cv.AddOrGrow("bitcoin", bubble.Metadata{}, canvas.DefaultGrowIncrement)
//	svg := sink.RenderSVG(cv.Frame())
package pkg
