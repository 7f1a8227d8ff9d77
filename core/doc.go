// Package core contains the session/token lifecycle coordinator for remote
// media servers: session state, send-time token attachment, version-checked
// client caching, single-flight reauthentication, and the retry-once request
// executor. Lower-level adapters (stores, transports) depend on this package;
// core must not depend on transport-specific or store-specific code.
package core
