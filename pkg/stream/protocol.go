// Package stream connects a live session to the transcription service over
// one WebSocket connection: it decodes the service's analysis messages into
// session events, sends the agenda handshake plus PCM audio outbound, and
// supervises reconnects with exponential backoff.
package stream

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/facilita/facil-cli/pkg/session"
)

// wireMessage is the union of every inbound message shape. The service
// sends flat JSON objects; which fields are present decides the variant.
type wireMessage struct {
	Text                *string         `json:"text"`
	WordsCount          *int            `json:"words_count"`
	UserType            *string         `json:"user_type"`
	CheckpointFulfilled json.RawMessage `json:"checkpoint_fulfilled"`
	IsOffTopic          *bool           `json:"is_offtopic"`
	TopicSummary        *string         `json:"topic_summary"`
	RelevantAgendaItem  *string         `json:"relevant_agenda_item"`
	Recommendation      *string         `json:"recommendation"`
	NewConversationTip  *string         `json:"new_conversation_tip"`
	Error               *string         `json:"error"`
	Status              *string         `json:"status"`
}

// Decode maps one inbound JSON message to a session event.
//
// Informational messages ({error: ...}, {status: ...}) return a nil event
// and nil error; the caller logs them and moves on. Malformed payloads
// return an error so the caller can drop and count them - decoding never
// panics and never produces a partially-valid event.
func Decode(data []byte) (session.Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshaling message: %w", err)
	}

	switch {
	case msg.Text != nil:
		return session.TranscriptReceived{Text: *msg.Text}, nil

	case msg.WordsCount != nil:
		if msg.UserType == nil {
			return nil, fmt.Errorf("words_count message missing user_type")
		}
		speaker := session.Speaker(*msg.UserType)
		if speaker != session.SpeakerHost && speaker != session.SpeakerGuest {
			return nil, fmt.Errorf("unknown user_type %q", *msg.UserType)
		}
		if *msg.WordsCount <= 0 {
			return nil, fmt.Errorf("words_count must be positive, got %d", *msg.WordsCount)
		}
		return session.WordCountReported{Count: *msg.WordsCount, Speaker: speaker}, nil

	case msg.CheckpointFulfilled != nil:
		ref, err := decodeCheckpointRef(msg.CheckpointFulfilled)
		if err != nil {
			return nil, err
		}
		return session.CheckpointFulfilled{Ref: ref}, nil

	case msg.IsOffTopic != nil:
		return session.TopicClassified{
			IsOffTopic:         *msg.IsOffTopic,
			Summary:            msg.TopicSummary,
			RelevantAgendaItem: msg.RelevantAgendaItem,
			Recommendation:     msg.Recommendation,
		}, nil

	case msg.NewConversationTip != nil:
		return session.ConversationTipReceived{Tip: *msg.NewConversationTip}, nil

	case msg.Error != nil, msg.Status != nil:
		return nil, nil

	default:
		return nil, fmt.Errorf("unrecognized message shape")
	}
}

// decodeCheckpointRef accepts the number and string forms of
// checkpoint_fulfilled and normalizes both to a CheckpointRef.
func decodeCheckpointRef(raw json.RawMessage) (session.CheckpointRef, error) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num == float64(int(num)) {
			return session.CheckpointRef(strconv.Itoa(int(num))), nil
		}
		return session.CheckpointRef(strconv.FormatFloat(num, 'f', -1, 64)), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return session.CheckpointRef(s), nil
	}
	return "", fmt.Errorf("checkpoint_fulfilled must be a number or string")
}

// agendaPayload is the outbound agenda document, field names matching the
// transcription service's contract.
type agendaPayload struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Datetime        string              `json:"datetime"`
	Content         string              `json:"content"`
	PreparationTips []string            `json:"preparation_tips"`
	ChecklistItems  []string            `json:"checklist_items"`
	TimePlan        []map[string]string `json:"time_plan"`
	Attachments     []string            `json:"attachments"`
}

// agendaInfoMessage is the control message sent once per (re)connect.
type agendaInfoMessage struct {
	Type   string         `json:"type"`
	Agenda *agendaPayload `json:"agenda"`
}

// EncodeAgendaInfo builds the agenda_info handshake. A nil agenda encodes
// the "no agenda" sentinel payload.
func EncodeAgendaInfo(agenda *session.Agenda) ([]byte, error) {
	msg := agendaInfoMessage{Type: "agenda_info"}
	if agenda != nil {
		timePlan := make([]map[string]string, len(agenda.TimePlan))
		for i, tp := range agenda.TimePlan {
			timePlan[i] = map[string]string{tp.Slot: tp.Activity}
		}
		msg.Agenda = &agendaPayload{
			ID:              agenda.ID,
			Title:           agenda.Title,
			Datetime:        agenda.Datetime.Format("2006-01-02T15:04:05Z07:00"),
			Content:         agenda.Content,
			PreparationTips: agenda.PreparationTips,
			ChecklistItems:  agenda.Checklist,
			TimePlan:        timePlan,
			Attachments:     agenda.Attachments,
		}
	}
	return json.Marshal(msg)
}
