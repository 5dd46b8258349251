// Package http exposes the schedule service over JSON.
//
// Every route except GET /healthz requires a bearer JWT whose subject is the
// caller's user id. Routes:
//   - POST /me/desired-events {"event_id"}: adds a wishlist entry. Responds 201 with
//     {"desired_event","conflicts","capacity_warning"}; conflicts and the warning are
//     advisory and never block the add.
//   - DELETE /me/desired-events/{eventID}: 204, or 404 when the entry does not exist.
//   - POST /me/tracked-events {"event_id"}, DELETE /me/tracked-events/{eventID}:
//     same contract for tracked events, without a capacity warning.
//   - POST /me/personal-events, PUT /me/personal-events/{id},
//     DELETE /me/personal-events/{id}: personal event CRUD exchanging the
//     `personalEventRequest` and `personalEventResponse` payloads in dto.go.
//   - POST /me/conflicts {"start","end","exclude":{"id","source_kind"}}: conflict query.
//   - GET /me/schedule and GET /me/schedule.ics: the merged schedule as JSON or iCalendar.
//   - GET /events/{eventID}/capacity: ticket count, signup count and the at-capacity flag.
//   - GET /healthz: 200 when storage answers a ping, 503 otherwise.
//
// Service errors map to 403 (unauthorized), 404 (not found), 409 (already
// registered), 422 (invalid window or fields), 503 (storage unavailable) and
// 500 for anything else.
package http
