package service

// Geofence thresholds for confirming arrival at the job site. Arrival is
// excluded from the generic swipe-to-advance path: it must be backed by an
// independent GPS check, never technician self-report.
const (
	// ArrivalRadiusKm is the activation radius: arrival may only be
	// confirmed strictly inside it.
	ArrivalRadiusKm = 1.5
	// CautionRadiusKm marks the band where the app should present a
	// cautionary confirmation. UI-level choice; the engine only exposes
	// the raw distance.
	CautionRadiusKm = 0.5
)

// CanConfirmArrival reports whether the technician's live position permits
// the EnRoute -> Arrived transition.
func CanConfirmArrival(distanceKm float64) bool {
	return distanceKm < ArrivalRadiusKm
}
