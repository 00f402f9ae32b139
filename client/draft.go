package client

import (
	"github.com/facilita/facil-cli/pkg/store"
)

// ToDocument converts an accepted draft into the agenda document shape:
// time-plan rows collapse to {"start - end": content} and the brief's
// title becomes the document title. The store assigns the id and datetime
// on save.
func (d *AgendaDraft) ToDocument(title string) store.Agenda {
	timePlan := make([]store.TimePlanSlot, 0, len(d.TimePlan))
	for _, tp := range d.TimePlan {
		timePlan = append(timePlan, store.TimePlanSlot{tp.Start + " - " + tp.End: tp.Content})
	}

	insights := make([]store.ParticipantInsight, 0, len(d.ParticipantsInsights))
	for _, in := range d.ParticipantsInsights {
		insights = append(insights, store.ParticipantInsight{Participant: in.Participant, Insight: in.Insight})
	}

	return store.Agenda{
		Title:               title,
		Checklist:           append([]string(nil), d.Checklist...),
		PreparationTips:     append([]string(nil), d.PreparationTips...),
		TimePlan:            timePlan,
		ParticipantInsights: insights,
	}
}
