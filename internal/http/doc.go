// Package http provides the chi router, middleware and handlers for the
// room booking API.
//
// Every response uses one of two envelopes: {"data": ..., "message"?: ...}
// on success and {"error": ..., "details"?: {...}} on failure. Messages are
// localized for Japanese users. The router exposes:
//   - POST /api/auth/login: issues a session token, also set as the
//     `session_token` cookie and the `X-Session-Token` header.
//   - POST /api/auth/logout, POST /api/auth/refresh, GET /api/me.
//   - GET|POST|PUT|DELETE /api/rooms and GET|PUT|DELETE /api/rooms/{id}. PUT
//     applies partial updates; the id comes from the path, ?id= or the body.
//   - GET|POST /api/rooms/{id}/blocks, DELETE /api/rooms/{id}/blocks/{blockID}.
//   - GET /api/bookings?userId=&roomId=&status=&from=&to=, GET /api/bookings/{id},
//     POST /api/bookings, PUT /api/bookings (status change), DELETE /api/bookings?id=.
//   - GET /api/availability?at=: busy or available per active room.
//   - GET|POST|PUT|DELETE /api/users: administrator user management.
//   - POST /api/upload (multipart "file"), DELETE /api/upload?path=.
//   - GET /api/reports?from=&to=, GET|PUT /api/settings, GET /api/audit.
//   - GET /api/env-check, /api/auth-debug, /api/supabase-health: unauthenticated
//     diagnostics.
//
// Request and response DTOs live alongside their handlers.
package http
