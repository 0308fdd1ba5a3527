// Package events provides a small typed publish/subscribe bus.
//
// The scan pipeline publishes a snapshot every time an item changes, and
// interested parties (the device API, tests) subscribe instead of holding
// references to live objects.
package events
