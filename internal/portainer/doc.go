// Package portainer implements the HTTP client for Portainer-compatible
// container-management servers.
//
// # Overview
//
// The rest of the application never sees the wire protocol. This package
// decodes the server's payloads into small domain value types (Endpoint,
// Container, Stack, ContainerDetails) and exposes them behind the API
// interface, which the data layer consumes and tests fake.
//
// # Authentication
//
// A Client is bound to exactly one server identity: the base URL and the API
// token are fixed at construction. Switching servers means constructing a new
// Client; the data layer does this through a factory function on Setup. The
// token travels as an X-API-Key header on every request.
//
// # Endpoints vs containers vs stacks
//
// Endpoints and stacks are top-level server resources:
//
//	GET /api/endpoints
//	GET /api/stacks
//
// Containers are scoped to one endpoint and proxied through the server to
// the endpoint's docker engine:
//
//	GET /api/endpoints/{eid}/docker/containers/json?all=1
//	GET /api/endpoints/{eid}/docker/containers/{cid}/json
//
// Container IDs are therefore only meaningful relative to the endpoint they
// were listed under. The domain types carry no endpoint reference; the data
// layer owns that association.
//
// # Wire payloads
//
// The server returns numeric IDs and status enums for endpoints and stacks,
// and docker-shaped JSON for containers. Conversion to the domain types
// happens in types.go (toDomain methods): numeric IDs become strings, status
// enums become the "up"/"down" and "active"/"inactive" constants, and docker
// names lose their leading slash.
//
// # Error handling
//
// All failures come back as wrapped errors: transport failures from
// net/http, "returned status N" for HTTP-level rejections, and "decode
// response" for malformed payloads. The package does not classify errors
// further; the data layer treats everything from here as an opaque remote
// failure.
//
// # Timeouts and cancellation
//
// Every request uses http.NewRequestWithContext, so callers cancel through
// the context. A 10 second client-side timeout bounds requests whose context
// never fires.
package portainer
