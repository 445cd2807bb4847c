package indexing

import (
	"fmt"
	"log"
)

// Collision describes an id shared by more than one record. Row ids come
// from human-entered names, so two rows with the same name in the same group
// collide; the later record shadows the earlier one in the search index.
type Collision struct {
	ID        string
	Positions []int // Record positions in flatten order
	Titles    []string
}

func (c Collision) String() string {
	return fmt.Sprintf("id %q used by %d records: %v", c.ID, len(c.Positions), c.Titles)
}

// FindCollisions reports every duplicated id in first-seen order. It never
// renames or drops records; uniqueness is the content author's contract.
func FindCollisions(records []SearchRecord) []Collision {
	positions := make(map[string][]int, len(records))
	var order []string
	for i, record := range records {
		if _, seen := positions[record.ID]; !seen {
			order = append(order, record.ID)
		}
		positions[record.ID] = append(positions[record.ID], i)
	}

	var collisions []Collision
	for _, id := range order {
		idx := positions[id]
		if len(idx) < 2 {
			continue
		}
		titles := make([]string, 0, len(idx))
		for _, i := range idx {
			titles = append(titles, records[i].Title)
		}
		collisions = append(collisions, Collision{ID: id, Positions: idx, Titles: titles})
	}
	return collisions
}

// WarnCollisions logs one warning per duplicated id and returns the count
func WarnCollisions(records []SearchRecord) int {
	collisions := FindCollisions(records)
	for _, c := range collisions {
		log.Printf("Warning: duplicate search record %s", c)
	}
	return len(collisions)
}
