// Package http provides HTTP handlers and middleware for the scheduling API.
//
// The router exposes the following endpoints:
//   - POST /users, GET /users/{username}, PUT /users/{id}: host account
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Creating an account with a known email returns the existing account.
//   - GET /schedules, POST /schedules, GET/PUT/DELETE /schedules/{id},
//     POST /schedules/{id}/duplicate, POST /schedules/{id}/default: weekly
//     availability schedule endpoints exchanging the `scheduleDTO` payload
//     defined in schedule_handler.go. A host always keeps at least one
//     schedule and exactly one default.
//   - GET /event-types, POST /event-types, GET/PUT/DELETE /event-types/{id}:
//     bookable meeting template endpoints exchanging the `eventTypeDTO`
//     payload defined in eventtype_handler.go.
//   - GET /bookings (with status, attendee_name, attendee_email,
//     event_type_id, from and to query filters), GET /bookings/upcoming,
//     GET /bookings/past, GET /bookings/{id}, POST /bookings/{id}/cancel,
//     POST /bookings/{id}/reschedule, PUT /bookings/{id}/location,
//     POST /bookings/{id}/guests: booking management endpoints exchanging
//     the `bookingDTO` payload defined in booking_handler.go.
//   - GET /{username}/{slug}/slots?date=YYYY-MM-DD and
//     POST /{username}/{slug}/bookings: the public booking page. These routes
//     carry no host identity and skip the X-User-ID resolution applied to
//     everything above.
//
// Every response uses the {"success":..., "data"|"error":...} envelope
// produced by responder.go. Request/response DTOs live alongside their
// respective handlers so tests and documentation share the same ground truth.
package http
