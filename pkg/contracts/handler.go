// Package contracts holds the interfaces binaries use to assemble the HTTP server.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a domain's routes on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// RoutesFunc adapts a plain function to Handler.
type RoutesFunc func(*httprouter.Router)

func (f RoutesFunc) RegisterRoutes(router *httprouter.Router) {
	f(router)
}
