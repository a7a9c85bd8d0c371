package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type historyEntryJSON struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      HistoryKind     `json:"kind"`
	Actor     string          `json:"actor"`
	Comment   string          `json:"comment,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON encodes the entry with its details tagged by kind.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	out := historyEntryJSON{
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		Actor:     e.Actor,
		Comment:   e.Comment,
	}
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		out.Details = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the details payload selected by kind.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var in historyEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	details, err := DecodeHistoryDetails(in.Kind, in.Details)
	if err != nil {
		return err
	}
	*e = HistoryEntry{
		Timestamp: in.Timestamp,
		Kind:      in.Kind,
		Actor:     in.Actor,
		Comment:   in.Comment,
		Details:   details,
	}
	return nil
}

// DecodeHistoryDetails decodes a raw details payload for the given kind.
func DecodeHistoryDetails(kind HistoryKind, raw json.RawMessage) (HistoryDetails, error) {
	switch kind {
	case HistoryOpened:
		return decodeDetails[OpenedDetails](raw)
	case HistoryTriaged:
		return decodeDetails[TriagedDetails](raw)
	case HistoryTriageRejected, HistoryStarted, HistoryAwaitingMaterial, HistoryBlocked, HistoryResumed:
		return decodeDetails[StatusChangeDetails](raw)
	case HistoryFinalized:
		return decodeDetails[FinalizedDetails](raw)
	case HistoryReprioritized:
		return decodeDetails[ReprioritizedDetails](raw)
	case HistorySLAExtended:
		return decodeDetails[ExtendedDetails](raw)
	case HistoryJustificationSubmitted:
		return decodeDetails[JustificationSubmittedDetails](raw)
	case HistoryJustificationApproved:
		return decodeDetails[JustificationApprovedDetails](raw)
	case HistoryJustificationRejected:
		return decodeDetails[JustificationRejectedDetails](raw)
	}
	return nil, fmt.Errorf("unknown history kind %q", kind)
}

func decodeDetails[T HistoryDetails](raw json.RawMessage) (HistoryDetails, error) {
	var details T
	if len(raw) == 0 {
		return details, nil
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("decode %T: %w", details, err)
	}
	return details, nil
}
