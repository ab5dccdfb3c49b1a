// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the project and task services, translating HTTP concerns to
// business operations and domain error codes back to status codes.
//
// Every versioned route lives under APIPrefix. GET /health and
// GET /metrics sit at the root.
package api
