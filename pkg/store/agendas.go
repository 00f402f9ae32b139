package store

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/session"
)

// agendaFilePattern matches agenda document filenames: numeric id + .json.
var agendaFilePattern = regexp.MustCompile(`^(\d+)\.json$`)

// TimePlanSlot is one time-plan row in document form:
// {"mm:ss - mm:ss": "activity"}.
type TimePlanSlot map[string]string

// ParticipantInsight is an AI-generated note about one participant.
type ParticipantInsight struct {
	Participant string `json:"participant"`
	Insight     string `json:"insight"`
}

// Agenda is an agenda document. Older documents carry free-text Content;
// generated ones carry the structured checklist/time-plan fields.
type Agenda struct {
	ID                  string               `json:"id"`
	Datetime            time.Time            `json:"datetime"`
	Title               string               `json:"title"`
	Content             string               `json:"content,omitempty"`
	Checklist           []string             `json:"checklist,omitempty"`
	PreparationTips     []string             `json:"preparation_tips,omitempty"`
	TimePlan            []TimePlanSlot       `json:"time_plan,omitempty"`
	ParticipantInsights []ParticipantInsight `json:"participant_insights,omitempty"`
	Attachments         []string             `json:"attachments,omitempty"`
}

// ToSession converts the document to the session-facing agenda shape.
func (a *Agenda) ToSession() *session.Agenda {
	out := &session.Agenda{
		ID:              a.ID,
		Title:           a.Title,
		Datetime:        a.Datetime,
		Content:         a.Content,
		Checklist:       append([]string(nil), a.Checklist...),
		PreparationTips: append([]string(nil), a.PreparationTips...),
		Attachments:     append([]string(nil), a.Attachments...),
	}
	for _, slot := range a.TimePlan {
		for window, activity := range slot {
			out.TimePlan = append(out.TimePlan, session.TimePlanEntry{Slot: window, Activity: activity})
		}
	}
	return out
}

// AgendaUpdate carries the updatable agenda fields; nil means "leave as is",
// matching the field-wise merge of the web API's PUT route.
type AgendaUpdate struct {
	Title               *string               `json:"title,omitempty"`
	PreparationTips     *[]string             `json:"preparation_tips,omitempty"`
	Checklist           *[]string             `json:"checklist,omitempty"`
	TimePlan            *[]TimePlanSlot       `json:"time_plan,omitempty"`
	ParticipantInsights *[]ParticipantInsight `json:"participant_insights,omitempty"`
}

// ListAgendas returns all agenda documents sorted by datetime, newest
// first. A missing agendas directory yields an empty list, not an error.
func (s *Store) ListAgendas() ([]Agenda, error) {
	entries, err := os.ReadDir(s.root + "/" + agendasDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Agenda{}, nil
		}
		return nil, fmt.Errorf("reading agendas directory: %w", err)
	}

	agendas := make([]Agenda, 0, len(entries))
	for _, entry := range entries {
		m := agendaFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var agenda Agenda
		if err := readJSON(s.agendaPath(m[1]), &agenda); err != nil {
			return nil, fmt.Errorf("reading agenda %s: %w", m[1], err)
		}
		agendas = append(agendas, agenda)
	}

	sort.Slice(agendas, func(i, j int) bool {
		return agendas[i].Datetime.After(agendas[j].Datetime)
	})

	return agendas, nil
}

// GetAgenda reads one agenda document by its numeric id.
func (s *Store) GetAgenda(id string) (*Agenda, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("agenda id %q: %w", id, fcerrors.ErrValidation)
	}

	var agenda Agenda
	if err := readJSON(s.agendaPath(id), &agenda); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("agenda %s: %w", id, fcerrors.ErrNotFound)
		}
		return nil, err
	}
	return &agenda, nil
}

// SaveAgenda persists an accepted agenda draft as a new document. The id
// and filename are the acceptance timestamp in unix milliseconds; the
// assigned id is returned.
func (s *Store) SaveAgenda(agenda Agenda, now time.Time) (string, error) {
	id := strconv.FormatInt(now.UnixMilli(), 10)
	agenda.ID = id
	if agenda.Datetime.IsZero() {
		agenda.Datetime = now.UTC()
	}
	if agenda.Title == "" {
		agenda.Title = "Meeting Agenda"
	}

	if err := writeJSON(s.agendaPath(id), agenda); err != nil {
		return "", fmt.Errorf("saving agenda: %w", err)
	}
	return id, nil
}

// UpdateAgenda merges the provided fields into an existing document and
// returns the updated agenda.
func (s *Store) UpdateAgenda(id string, update AgendaUpdate) (*Agenda, error) {
	agenda, err := s.GetAgenda(id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		agenda.Title = *update.Title
	}
	if update.PreparationTips != nil {
		agenda.PreparationTips = *update.PreparationTips
	}
	if update.Checklist != nil {
		agenda.Checklist = *update.Checklist
	}
	if update.TimePlan != nil {
		agenda.TimePlan = *update.TimePlan
	}
	if update.ParticipantInsights != nil {
		agenda.ParticipantInsights = *update.ParticipantInsights
	}

	if err := writeJSON(s.agendaPath(id), agenda); err != nil {
		return nil, fmt.Errorf("updating agenda %s: %w", id, err)
	}
	return agenda, nil
}
