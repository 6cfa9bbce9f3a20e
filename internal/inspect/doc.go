// Package inspect serves a registry over HTTP so tools outside the viewer
// can read the stores, raise fetch requests, move the playhead and follow
// changes live over a websocket.
//
// Routes:
//
//	GET    /healthz             liveness probe
//	GET    /api/stores          snapshot of every store
//	GET    /api/stores/{name}   fields of one store
//	POST   /api/fetch           {"tracker": "..."} raises a fetch request
//	DELETE /api/fetch           clears the fetch request
//	POST   /api/animation       partial animation update, applied as a batch
//	GET    /ws                  change feed (see Message)
//	GET    /metrics             Prometheus metrics, when enabled
package inspect
