// Package http exposes the booking engine over a gin router.
//
// Endpoints:
//   - GET /healthz: pings the storage backend. 200 {"status":"ok"} or 503.
//   - GET /rooms, GET /rooms/:id: read-only room catalog exchanging the
//     `roomDTO` payload defined in room_handler.go. Hours render as "HH:mm".
//   - GET /reservations[?room_id=], GET /reservations/:id, POST /reservations,
//     PUT /reservations/:id, DELETE /reservations/:id: reservation endpoints
//     exchanging the `reservationDTO` payload defined in reservation_handler.go.
//     Timestamps use "yyyy-MM-dd HH:mm" in the configured time zone.
//
// Errors share one body, {"error_code","message","errors","conflicting_ids"}:
// business rejections answer 400 with the rejection reason as error_code,
// malformed input 422, unknown ids 404, a contended room 503 with
// Retry-After, and storage failures 500.
package http
