// Package loader registers self-contained features on the Fiber app.
//
// A Feature names itself, says whether it is enabled and registers its
// routes in Load:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps registration order and LoadAll stops at the first
// feature that fails to load. The start command registers the device
// session feature.
package loader
