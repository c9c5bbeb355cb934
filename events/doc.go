// Package events is the application-wide broadcast the cache layer emits on.
//
// Any component may subscribe to a Topic; publishers never wait for
// subscribers to do anything beyond returning from their handler.
package events
