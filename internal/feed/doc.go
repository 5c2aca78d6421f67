// Package feed enumerates the static feeds offered by the data portal and
// builds the immutable download requests for them.
//
// Only three feeds exist:
//
//	fares      /api/staticfeeds/2.0/fares
//	routeing   /api/staticfeeds/2.0/routeing
//	timetable  /api/staticfeeds/3.0/timetable
//
// A [Request] pairs one feed with the local path it is written to. Requests
// are built once from caller input with [BuildRequests] and never mutated.
package feed
