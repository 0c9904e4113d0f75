package middleware

import "github.com/aretw0/canopy/pkg/ports"

// Middleware allows wrapping a TreeStore to add behavior.
type Middleware func(ports.TreeStore) ports.TreeStore

// Wrap applies the middlewares to store. The first middleware is the outermost.
func Wrap(store ports.TreeStore, mws ...Middleware) ports.TreeStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
