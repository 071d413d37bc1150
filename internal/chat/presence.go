package chat

import "time"

// PresenceRecord is the authoritative record of one live connection.
type PresenceRecord struct {
	Username string
	Room     string
	JoinedAt time.Time

	seq uint64
}

// Member is one roster entry as broadcast in user_list.
type Member struct {
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// presenceDirectory maps connection id to its PresenceRecord.
type presenceDirectory struct {
	records map[string]PresenceRecord
	nextSeq uint64
}

func newPresenceDirectory() *presenceDirectory {
	return &presenceDirectory{records: make(map[string]PresenceRecord)}
}

func (d *presenceDirectory) put(connID string, rec PresenceRecord) {
	d.nextSeq++
	rec.seq = d.nextSeq
	d.records[connID] = rec
}

func (d *presenceDirectory) get(connID string) (PresenceRecord, bool) {
	rec, ok := d.records[connID]
	return rec, ok
}

func (d *presenceDirectory) remove(connID string) {
	delete(d.records, connID)
}

func (d *presenceDirectory) count() int {
	return len(d.records)
}
