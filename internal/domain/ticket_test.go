package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func sampleTicket() *Ticket {
	assignee := "worker-1"
	return &Ticket{
		ID:         "id-1",
		Code:       "CH-101",
		Title:      "Broken lamp",
		Requester:  "resident-42",
		AssignedTo: &assignee,
		CreatedAt:  t0,
		Priority:   TicketPriorityHigh,
		SLALimit:   t0.Add(4 * time.Hour),
		Status:     TicketStatusInProgress,
		Materials:  []string{"bulb"},
		History: []HistoryEntry{
			NewHistoryEntry(t0, "resident-42", "", OpenedDetails{Priority: TicketPriorityHigh, SLALimit: t0.Add(4 * time.Hour)}),
		},
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		raw     string
		want    TicketPriority
		wantErr bool
	}{
		{raw: "HIGH", want: TicketPriorityHigh},
		{raw: " low ", want: TicketPriorityLow},
		{raw: "emergency", want: TicketPriorityEmergency},
		{raw: "URGENT", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePriority(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPriority) {
				t.Errorf("ParsePriority(%q) err = %v, want ErrInvalidPriority", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParsePriority(%q) = %q, %v; want %q", tc.raw, got, err, tc.want)
		}
	}
}

func TestIsOverdueIsStrict(t *testing.T) {
	ticket := sampleTicket()
	if ticket.IsOverdue(ticket.SLALimit) {
		t.Error("ticket is overdue exactly at its deadline")
	}
	if !ticket.IsOverdue(ticket.SLALimit.Add(time.Second)) {
		t.Error("ticket not overdue one second past its deadline")
	}
	ticket.Status = TicketStatusFinalized
	if ticket.IsOverdue(ticket.SLALimit.Add(time.Hour)) {
		t.Error("finalized ticket reported overdue")
	}
}

func TestIsCriticalUsesCurrentWindow(t *testing.T) {
	ticket := sampleTicket() // window is 4h, critical after 6h

	if ticket.IsCritical(t0.Add(6 * time.Hour)) {
		t.Error("critical at exactly 150% of the window")
	}
	if !ticket.IsCritical(t0.Add(6*time.Hour + time.Minute)) {
		t.Error("not critical past 150% of the window")
	}

	// Extending the deadline widens the window going forward.
	ticket.SLALimit = t0.Add(8 * time.Hour)
	if ticket.IsCritical(t0.Add(7 * time.Hour)) {
		t.Error("critical after extension widened the window")
	}

	ticket.Status = TicketStatusFinalized
	if ticket.IsCritical(t0.Add(100 * time.Hour)) {
		t.Error("finalized ticket reported critical")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleTicket()
	started := t0.Add(time.Hour)
	original.StartedAt = &started

	c := original.Clone()
	*c.AssignedTo = "someone-else"
	*c.StartedAt = t0
	c.Materials[0] = "cable"
	c.Append(NewHistoryEntry(t0, "x", "", StatusChangeDetails{From: TicketStatusInProgress, To: TicketStatusBlocked}))

	if *original.AssignedTo != "worker-1" {
		t.Errorf("AssignedTo shared with clone: %q", *original.AssignedTo)
	}
	if !original.StartedAt.Equal(started) {
		t.Errorf("StartedAt shared with clone: %v", *original.StartedAt)
	}
	if original.Materials[0] != "bulb" {
		t.Errorf("Materials shared with clone: %v", original.Materials)
	}
	if len(original.History) != 1 {
		t.Errorf("History length = %d after appending to clone, want 1", len(original.History))
	}
}

func TestStatusChangeKinds(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     HistoryKind
	}{
		{TicketStatusQueued, TicketStatusInProgress, HistoryStarted},
		{TicketStatusBlocked, TicketStatusInProgress, HistoryResumed},
		{TicketStatusInProgress, TicketStatusAwaitingMaterial, HistoryAwaitingMaterial},
		{TicketStatusInProgress, TicketStatusBlocked, HistoryBlocked},
		{TicketStatusOpen, TicketStatusBlocked, HistoryTriageRejected},
	}
	for _, tc := range tests {
		got := StatusChangeDetails{From: tc.from, To: tc.to}.Kind()
		if got != tc.want {
			t.Errorf("%s -> %s kind = %s, want %s", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestHistoryEntryJSONKeepsTypedDetails(t *testing.T) {
	proposed := t0.Add(48 * time.Hour)
	entries := []HistoryEntry{
		NewHistoryEntry(t0, "sup", "", TriagedDetails{Assignee: "w", OldPriority: TicketPriorityMedium, NewPriority: TicketPriorityHigh, SLALimit: t0.Add(4 * time.Hour)}),
		NewHistoryEntry(t0, "admin", "supplier delay", ExtendedDetails{Days: 2, OldLimit: t0, NewLimit: t0.AddDate(0, 0, 2)}),
		NewHistoryEntry(t0, "sup", "no evidence", JustificationRejectedDetails{ProposedNewLimit: &proposed}),
	}

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded []HistoryEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}

	triaged, ok := decoded[0].Details.(TriagedDetails)
	if !ok || !triaged.PriorityChanged() || triaged.Assignee != "w" {
		t.Errorf("triaged details = %#v", decoded[0].Details)
	}
	extended, ok := decoded[1].Details.(ExtendedDetails)
	if !ok || extended.Days != 2 || decoded[1].Comment != "supplier delay" {
		t.Errorf("extended entry = %#v", decoded[1])
	}
	rejected, ok := decoded[2].Details.(JustificationRejectedDetails)
	if !ok || rejected.ProposedNewLimit == nil || !rejected.ProposedNewLimit.Equal(proposed) {
		t.Errorf("rejected details = %#v", decoded[2].Details)
	}
}

func TestDecodeHistoryDetailsRejectsUnknownKind(t *testing.T) {
	if _, err := DecodeHistoryDetails("TELEPORTED", nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLabel(t *testing.T) {
	entry := NewHistoryEntry(t0, "admin", "rain", ExtendedDetails{Days: 3})
	if got, want := entry.Label(), "Deadline extended (+3 days): rain"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
	triage := NewHistoryEntry(t0, "sup", "", TriagedDetails{Assignee: "Ana", OldPriority: TicketPriorityLow, NewPriority: TicketPriorityLow})
	if got, want := triage.Label(), "Assigned to Ana"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestActorCanView(t *testing.T) {
	ticket := sampleTicket()
	tests := []struct {
		actor Actor
		want  bool
	}{
		{Actor{Name: "boss", Role: RoleAdmin}, true},
		{Actor{Name: "maria", Role: RoleSupervisor}, true},
		{Actor{Name: "board", Role: RoleDirectorate}, true},
		{Actor{Name: "worker-1", Role: RoleWorker}, true},
		{Actor{Name: "worker-2", Role: RoleWorker}, false},
		{Actor{Name: "resident-42", Role: RoleRequester}, true},
		{Actor{Name: "resident-7", Role: RoleRequester}, false},
	}
	for _, tc := range tests {
		if got := tc.actor.CanView(ticket); got != tc.want {
			t.Errorf("%+v CanView = %v, want %v", tc.actor, got, tc.want)
		}
	}
}
