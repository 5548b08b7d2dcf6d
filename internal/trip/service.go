package trip

import (
	"context"
	"log"
	"strings"

	"trip-planner/internal/domain"
	"trip-planner/internal/errors"
	"trip-planner/internal/store"
	"trip-planner/internal/stream"
	"trip-planner/internal/user"
	"trip-planner/internal/worker"
)

// EventInput carries the fields a client may set when creating an event.
type EventInput struct {
	Time     string `json:"time"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Location string `json:"location"`
	Link     string `json:"link"`
}

// EventPatch carries the fields of an edit; only non-nil fields are
// written.
type EventPatch struct {
	Time     *string `json:"time"`
	Title    *string `json:"title"`
	Desc     *string `json:"desc"`
	Location *string `json:"location"`
	Link     *string `json:"link"`
}

// PackingItemInput carries a new packing list entry.
type PackingItemInput struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Qty      int    `json:"qty"`
}

// Service defines the interface for trip document business logic
type Service interface {
	Itinerary() (*ItinerarySnapshot, error)
	Packing() (*PackingSnapshot, error)
	Snapshots() (itinerary any, packing any, err error)
	BroadcastAll()

	AddDay(date string) (*ItinerarySnapshot, error)
	AddEvent(username string, di int, in EventInput) (*ItinerarySnapshot, error)
	EditEvent(username string, di, ei int, patch EventPatch) (*ItinerarySnapshot, error)
	VoteEvent(username string, di, ei, delta int) error
	DeleteEvent(username string, di, ei int) (*ItinerarySnapshot, error)

	AddPackingItem(username string, in PackingItemInput) error
	ToggleHeart(username string, itemID int) error
	DeletePackingItem(username string, itemID int) error
}

// DefaultService implements Service. Every mutation goes through
// update: one exclusive store transaction, then a fanout publish of the
// affected views built from the committed document.
type DefaultService struct {
	store store.Store
	users user.Service
	hub   *stream.Hub
	pool  *worker.Pool
}

// NewService creates a new trip service
func NewService(st store.Store, users user.Service, hub *stream.Hub, pool *worker.Pool) *DefaultService {
	return &DefaultService{store: st, users: users, hub: hub, pool: pool}
}

// Itinerary projects the itinerary view from the current document.
func (s *DefaultService) Itinerary() (*ItinerarySnapshot, error) {
	doc, err := s.store.LoadDocument()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}
	users, err := s.users.SafeUsers()
	if err != nil {
		return nil, err
	}
	return projectItinerary(doc, len(users)), nil
}

// Packing projects the packing view from the current document.
func (s *DefaultService) Packing() (*PackingSnapshot, error) {
	doc, err := s.store.LoadDocument()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}
	users, err := s.users.SafeUsers()
	if err != nil {
		return nil, err
	}
	return projectPacking(doc, users), nil
}

// Snapshots returns the current pair of full views for a freshly
// connected stream viewer.
func (s *DefaultService) Snapshots() (any, any, error) {
	doc, err := s.store.LoadDocument()
	if err != nil {
		return nil, nil, errors.StoreFailure(err)
	}
	users, err := s.users.SafeUsers()
	if err != nil {
		return nil, nil, err
	}
	return projectItinerary(doc, len(users)), projectPacking(doc, users), nil
}

// BroadcastAll pushes both current views to every viewer, used after
// user directory changes that alter participant counts.
func (s *DefaultService) BroadcastAll() {
	doc, err := s.store.LoadDocument()
	if err != nil {
		log.Printf("Broadcast skipped, could not load document: %v", err)
		return
	}
	s.publish(doc, true, true)
}

// AddDay appends an empty day to the itinerary.
func (s *DefaultService) AddDay(date string) (*ItinerarySnapshot, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, errors.BadRequest("date required", nil)
	}

	doc, err := s.update(func(d *domain.Document) error {
		d.Days = append(d.Days, domain.Day{Date: date, Events: []domain.Event{}})
		return nil
	}, true, false)
	if err != nil {
		return nil, err
	}
	return s.itineraryFrom(doc)
}

// AddEvent inserts an event into the given day, recording the caller
// as creator, and keeps the day sorted.
func (s *DefaultService) AddEvent(username string, di int, in EventInput) (*ItinerarySnapshot, error) {
	doc, err := s.update(func(d *domain.Document) error {
		if di < 0 || di >= len(d.Days) {
			return errors.NotFound("Day not found", nil)
		}
		day := &d.Days[di]
		day.Events = append(day.Events, domain.Event{
			Time:      strings.TrimSpace(in.Time),
			Title:     strings.TrimSpace(in.Title),
			Desc:      strings.TrimSpace(in.Desc),
			Location:  strings.TrimSpace(in.Location),
			Link:      strings.TrimSpace(in.Link),
			Creator:   username,
			VoteUsers: map[string]string{},
		})
		sortDayEvents(day)
		return nil
	}, true, false)
	if err != nil {
		return nil, err
	}
	return s.itineraryFrom(doc)
}

// EditEvent overwrites only the provided fields. Creator or admin only.
func (s *DefaultService) EditEvent(username string, di, ei int, patch EventPatch) (*ItinerarySnapshot, error) {
	isAdmin := s.users.IsAdmin(username)

	doc, err := s.update(func(d *domain.Document) error {
		ev, day, err := eventAt(d, di, ei)
		if err != nil {
			return err
		}
		if username != ev.Creator && !isAdmin {
			return errors.Forbidden("Only the creator or an admin can edit this event", nil)
		}
		applyPatch(ev, patch)
		sortDayEvents(day)
		return nil
	}, true, false)
	if err != nil {
		return nil, err
	}
	return s.itineraryFrom(doc)
}

// VoteEvent applies toggle vote semantics: re-voting the same direction
// retracts the vote, voting the other direction moves the tallies in
// one step, and tallies never go below zero.
func (s *DefaultService) VoteEvent(username string, di, ei, delta int) error {
	direction := domain.VoteUp
	if delta < 0 {
		direction = domain.VoteDown
	}

	_, err := s.update(func(d *domain.Document) error {
		ev, _, err := eventAt(d, di, ei)
		if err != nil {
			return err
		}

		prev := ev.VoteUsers[username]
		ups, downs := ev.Ups, ev.Downs
		switch {
		case prev == direction:
			// retract
			if direction == domain.VoteUp {
				ups--
			} else {
				downs--
			}
			delete(ev.VoteUsers, username)
		case prev != "":
			// flip
			if direction == domain.VoteUp {
				downs--
				ups++
			} else {
				ups--
				downs++
			}
			ev.VoteUsers[username] = direction
		default:
			if direction == domain.VoteUp {
				ups++
			} else {
				downs++
			}
			ev.VoteUsers[username] = direction
		}

		ev.Ups = max(0, ups)
		ev.Downs = max(0, downs)
		return nil
	}, true, false)
	return err
}

// DeleteEvent removes an event. Allowed for the creator, an admin, or
// anyone once every other registered user holds an active downvote.
// The non-creator set is re-derived from the current directory on
// every attempt, so a user registered after earlier downvotes must
// also downvote.
func (s *DefaultService) DeleteEvent(username string, di, ei int) (*ItinerarySnapshot, error) {
	isAdmin := s.users.IsAdmin(username)
	allUsers, err := s.users.Usernames()
	if err != nil {
		return nil, err
	}

	doc, err := s.update(func(d *domain.Document) error {
		ev, day, err := eventAt(d, di, ei)
		if err != nil {
			return err
		}

		required, downs := 0, 0
		allOthersDown := true
		for _, name := range allUsers {
			if name == ev.Creator {
				continue
			}
			required++
			if ev.VoteUsers[name] == domain.VoteDown {
				downs++
			} else {
				allOthersDown = false
			}
		}

		if username != ev.Creator && !isAdmin && !allOthersDown {
			return errors.Forbidden(
				"Delete blocked: needs downvotes from every non-creator user, or creator/admin",
				nil,
			).WithDetails(map[string]any{
				"required_count": required,
				"downs_count":    downs,
			})
		}

		day.Events = append(day.Events[:ei], day.Events[ei+1:]...)
		return nil
	}, true, false)
	if err != nil {
		return nil, err
	}
	return s.itineraryFrom(doc)
}

// AddPackingItem appends a packing list entry. Ids come from the
// document's next_id counter and are never reused.
func (s *DefaultService) AddPackingItem(username string, in PackingItemInput) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return errors.BadRequest("text required", nil)
	}

	category := strings.ToLower(strings.TrimSpace(in.Category))
	switch category {
	case domain.CategoryItems, domain.CategorySnacks, domain.CategoryOther:
	default:
		category = domain.CategoryItems
	}

	_, err := s.update(func(d *domain.Document) error {
		id := d.Packing.NextID
		d.Packing.NextID = id + 1
		d.Packing.Items = append(d.Packing.Items, domain.PackingItem{
			ID:       id,
			User:     username,
			Category: category,
			Text:     text,
			Qty:      max(1, in.Qty),
			HeartsBy: map[string]bool{},
		})
		return nil
	}, false, true)
	return err
}

// ToggleHeart toggles the caller's membership in the item's heart set.
func (s *DefaultService) ToggleHeart(username string, itemID int) error {
	_, err := s.update(func(d *domain.Document) error {
		item := itemByID(d, itemID)
		if item == nil {
			return errors.NotFound("Packing item not found", nil)
		}
		if item.HeartsBy[username] {
			delete(item.HeartsBy, username)
		} else {
			item.HeartsBy[username] = true
		}
		return nil
	}, false, true)
	return err
}

// DeletePackingItem removes an item. Owner or admin only.
func (s *DefaultService) DeletePackingItem(username string, itemID int) error {
	isAdmin := s.users.IsAdmin(username)

	_, err := s.update(func(d *domain.Document) error {
		item := itemByID(d, itemID)
		if item == nil {
			return errors.NotFound("Packing item not found", nil)
		}
		if username != item.User && !isAdmin {
			return errors.Forbidden("Only the owner or an admin can delete this item", nil)
		}

		kept := d.Packing.Items[:0]
		for i := range d.Packing.Items {
			if d.Packing.Items[i].ID != itemID {
				kept = append(kept, d.Packing.Items[i])
			}
		}
		d.Packing.Items = kept
		return nil
	}, false, true)
	return err
}

// update is the commit protocol shared by every mutation: run the
// mutator inside the store's exclusive transaction, and only after the
// write is durably committed hand the affected views to the fanout hub.
func (s *DefaultService) update(mutator func(*domain.Document) error, itinerary, packing bool) (*domain.Document, error) {
	doc, err := s.store.WithExclusiveDocument(mutator)
	if err != nil {
		return nil, errors.FromStore(err)
	}
	s.publish(doc, itinerary, packing)
	return doc, nil
}

// publish projects the committed document and dispatches it to the
// hub through the single-worker pool, keeping publishes in commit
// order without holding up the request.
func (s *DefaultService) publish(doc *domain.Document, itinerary, packing bool) {
	users, err := s.users.SafeUsers()
	if err != nil {
		log.Printf("Fanout skipped, could not load users: %v", err)
		return
	}

	var itinSnap *ItinerarySnapshot
	var packSnap *PackingSnapshot
	if itinerary {
		itinSnap = projectItinerary(doc, len(users))
	}
	if packing {
		packSnap = projectPacking(doc, users)
	}

	s.pool.Submit(func(ctx context.Context) error {
		if itinSnap != nil {
			s.hub.Publish(stream.KindItinerary, itinSnap)
		}
		if packSnap != nil {
			s.hub.Publish(stream.KindPacking, packSnap)
		}
		return nil
	})
}

func (s *DefaultService) itineraryFrom(doc *domain.Document) (*ItinerarySnapshot, error) {
	users, err := s.users.SafeUsers()
	if err != nil {
		return nil, err
	}
	return projectItinerary(doc, len(users)), nil
}

func eventAt(d *domain.Document, di, ei int) (*domain.Event, *domain.Day, error) {
	if di < 0 || di >= len(d.Days) {
		return nil, nil, errors.NotFound("Event not found", nil)
	}
	day := &d.Days[di]
	if ei < 0 || ei >= len(day.Events) {
		return nil, nil, errors.NotFound("Event not found", nil)
	}
	return &day.Events[ei], day, nil
}

func itemByID(d *domain.Document, id int) *domain.PackingItem {
	for i := range d.Packing.Items {
		if d.Packing.Items[i].ID == id {
			return &d.Packing.Items[i]
		}
	}
	return nil
}

func applyPatch(ev *domain.Event, patch EventPatch) {
	if patch.Time != nil {
		ev.Time = strings.TrimSpace(*patch.Time)
	}
	if patch.Title != nil {
		ev.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Desc != nil {
		ev.Desc = strings.TrimSpace(*patch.Desc)
	}
	if patch.Location != nil {
		ev.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Link != nil {
		ev.Link = strings.TrimSpace(*patch.Link)
	}
}
