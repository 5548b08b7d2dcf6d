package trip

import "trip-planner/internal/domain"

// Meta rides along with every snapshot.
type Meta struct {
	Participants int `json:"participants"`
}

// ItinerarySnapshot is the projected itinerary view sent to clients.
type ItinerarySnapshot struct {
	Days []domain.Day `json:"days"`
	Meta Meta         `json:"_meta"`
}

// PackingSnapshot is the projected packing view. Users carry no
// password hashes.
type PackingSnapshot struct {
	Items []domain.PackingItem `json:"items"`
	Users []domain.SafeUser    `json:"users"`
	Meta  Meta                 `json:"_meta"`
}

func projectItinerary(doc *domain.Document, participants int) *ItinerarySnapshot {
	return &ItinerarySnapshot{
		Days: doc.Days,
		Meta: Meta{Participants: participants},
	}
}

func projectPacking(doc *domain.Document, users []domain.SafeUser) *PackingSnapshot {
	return &PackingSnapshot{
		Items: doc.Packing.Items,
		Users: users,
		Meta:  Meta{Participants: len(users)},
	}
}
