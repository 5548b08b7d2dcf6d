package domain

// Vote directions stored in Event.VoteUsers
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Packing categories
const (
	CategoryItems  = "items"
	CategorySnacks = "snacks"
	CategoryOther  = "other"
)

// Document is the single shared trip record: the day-by-day itinerary
// plus the shared packing list. It is persisted as one JSON file and
// only ever mutated inside a store transaction.
type Document struct {
	Days    []Day   `json:"days"`
	Packing Packing `json:"packing"`
}

type Day struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

type Event struct {
	Time      string            `json:"time"`
	Title     string            `json:"title"`
	Desc      string            `json:"desc"`
	Location  string            `json:"location"`
	Link      string            `json:"link"`
	Creator   string            `json:"creator"`
	Ups       int               `json:"ups"`
	Downs     int               `json:"downs"`
	VoteUsers map[string]string `json:"vote_users"`
}

type Packing struct {
	Items  []PackingItem `json:"items"`
	NextID int           `json:"next_id"`
}

type PackingItem struct {
	ID       int             `json:"id"`
	User     string          `json:"user"`
	Category string          `json:"category"`
	Text     string          `json:"text"`
	Qty      int             `json:"qty"`
	HeartsBy map[string]bool `json:"hearts_by"`
}

// NewDocument returns the empty seed document.
func NewDocument() *Document {
	return &Document{
		Days:    []Day{},
		Packing: Packing{Items: []PackingItem{}, NextID: 1},
	}
}

// Normalize repairs nil collections after a JSON decode so that
// snapshots always serialize as [] / {} instead of null.
func (d *Document) Normalize() {
	if d.Days == nil {
		d.Days = []Day{}
	}
	for i := range d.Days {
		if d.Days[i].Events == nil {
			d.Days[i].Events = []Event{}
		}
		for j := range d.Days[i].Events {
			if d.Days[i].Events[j].VoteUsers == nil {
				d.Days[i].Events[j].VoteUsers = map[string]string{}
			}
		}
	}
	if d.Packing.Items == nil {
		d.Packing.Items = []PackingItem{}
	}
	if d.Packing.NextID < 1 {
		d.Packing.NextID = 1
	}
	for i := range d.Packing.Items {
		if d.Packing.Items[i].HeartsBy == nil {
			d.Packing.Items[i].HeartsBy = map[string]bool{}
		}
	}
}
