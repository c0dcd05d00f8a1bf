// Package upstream opens connections to origin servers and relays their
// responses back to clients.
//
// Dial failures of every kind (DNS, refusal, timeout) surface as a single
// *ConnectError so callers can map them to 502 Bad Gateway without inspecting
// the cause. Relay streams origin bytes to the client as they arrive while
// keeping a bounded copy for the response cache.
package upstream
