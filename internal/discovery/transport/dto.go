// Package transport defines the discovery module's wire shapes.
package transport

import (
	"fieldtech_backend/internal/discovery/service"
)

// DiscoverRequest carries the optional device fix for a list refresh.
// Without one the available bucket is empty and distances stay blank.
type DiscoverRequest struct {
	Lat *float64 `form:"lat" validate:"omitempty,min=-90,max=90"`
	Lng *float64 `form:"lng" validate:"omitempty,min=-180,max=180"`
}

// JobCardResponse is one job list entry.
type JobCardResponse struct {
	OfferID       string `json:"offerId"`
	RequestID     string `json:"requestId"`
	Status        string `json:"status"`
	ServiceName   string `json:"serviceName"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	AddressNote   string `json:"addressNote,omitempty"`
	EstimatedCost *int64 `json:"estimatedCost,omitempty"`
	// Distance is formatted ("350m", "4.2km"), "N/A" for unresolvable
	// addresses, or empty while a background resolution is pending.
	Distance string `json:"distance,omitempty"`
}

// SnapshotResponse is one discovery refresh.
type SnapshotResponse struct {
	Available []JobCardResponse `json:"available"`
	Accepted  []JobCardResponse `json:"accepted"`
}

// FromSnapshot maps the pipeline snapshot to the wire shape.
func FromSnapshot(snapshot service.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Available: fromCards(snapshot.Available),
		Accepted:  fromCards(snapshot.Accepted),
	}
}

func fromCards(cards []service.JobCard) []JobCardResponse {
	out := make([]JobCardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, JobCardResponse{
			OfferID:       card.Offer.ID,
			RequestID:     card.Offer.RequestID,
			Status:        card.Status.String(),
			ServiceName:   card.ServiceName,
			CustomerName:  card.Offer.CustomerName,
			CustomerPhone: card.Phone,
			Address:       card.Offer.Address,
			AddressNote:   card.Offer.AddressNote,
			EstimatedCost: card.Offer.EstimatedCost,
			Distance:      card.Distance,
		})
	}
	return out
}
