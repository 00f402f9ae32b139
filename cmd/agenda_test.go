package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/facil-cli/client"
	"github.com/facilita/facil-cli/config"
	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/store"
)

// newTestDeps builds a dependency set backed by a temp store and the
// given backend URL. The config never touches the user's home directory.
func newTestDeps(t *testing.T, backendURL string) *Deps {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.BackendURL = backendURL

	return &Deps{
		Config: cfg,
		OpenStore: func(c *config.Config) *store.Store {
			return store.New(c.DataDir)
		},
		NewBackend: func(c *config.Config) *client.Client {
			return client.New(c.BackendURL, 5*time.Second, nil)
		},
	}
}

// execute runs a command tree with args and captures its output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAgendaListEmpty(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	out, err := execute(t, NewAgendaCommand(deps), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No agendas stored")
}

func TestAgendaCreateAcceptList(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agenda/", r.URL.Path)

		var form client.AgendaForm
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "Q2 Review", form.Title)
		assert.Equal(t, "Review Q2 targets", form.Purpose)

		json.NewEncoder(w).Encode(client.AgendaDraft{
			Checklist: []string{"Intro", "Demo"},
			TimePlan: []client.TimePlanPoint{
				{Start: "00:00", End: "10:00", Content: "Intro"},
			},
			PreparationTips: []string{"Read the brief"},
		})
	}))
	defer backend.Close()

	deps := newTestDeps(t, backend.URL)

	out, err := execute(t, NewAgendaCommand(deps), "create",
		"--title", "Q2 Review", "--purpose", "Review Q2 targets")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Intro")
	assert.Contains(t, out, "00:00 - 10:00")
	assert.Contains(t, out, "facil agenda accept")

	// The working draft lands in the config dir.
	draftFile := filepath.Join(os.Getenv("FACIL_CONFIG_DIR"), draftFileName)
	_, statErr := os.Stat(draftFile)
	require.NoError(t, statErr)

	out, err = execute(t, NewAgendaCommand(deps), "accept")
	require.NoError(t, err)
	assert.Contains(t, out, "Agenda saved:")

	// Draft is discarded after acceptance.
	_, statErr = os.Stat(draftFile)
	assert.True(t, os.IsNotExist(statErr))

	agendas, err := deps.OpenStore(deps.Config).ListAgendas()
	require.NoError(t, err)
	require.Len(t, agendas, 1)
	assert.Equal(t, "Q2 Review", agendas[0].Title)
	assert.Equal(t, []string{"Intro", "Demo"}, agendas[0].Checklist)
	require.Len(t, agendas[0].TimePlan, 1)
	assert.Equal(t, "Intro", agendas[0].TimePlan[0]["00:00 - 10:00"])
}

func TestAgendaChatWithoutDraft(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())
	deps := newTestDeps(t, "http://unused")

	_, err := execute(t, NewAgendaCommand(deps), "chat", "add a Q&A item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no working draft")
}

func TestAgendaChatRevisesDraft(t *testing.T) {
	t.Setenv("FACIL_CONFIG_DIR", t.TempDir())

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agenda/chat", r.URL.Path)

		var req struct {
			Messages []client.ChatMessage `json:"messages"`
			Agenda   *client.AgendaDraft  `json:"agenda"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		require.NotNil(t, req.Agenda)
		assert.Equal(t, []string{"Intro"}, req.Agenda.Checklist)

		json.NewEncoder(w).Encode(client.AgendaDraft{
			Checklist: []string{"Intro", "Q&A"},
		})
	}))
	defer backend.Close()

	require.NoError(t, saveDraft(draftState{
		Title: "Sync",
		Draft: client.AgendaDraft{Checklist: []string{"Intro"}},
	}))

	deps := newTestDeps(t, backend.URL)
	out, err := execute(t, NewAgendaCommand(deps), "chat", "add a Q&A item")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Q&A")

	state, err := loadDraft()
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro", "Q&A"}, state.Draft.Checklist)
}

func TestAgendaShowNotFound(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	_, err := execute(t, NewAgendaCommand(deps), "show", "1234567890")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fcerrors.ErrNotFound))
}

func TestAgendaUpdate(t *testing.T) {
	deps := newTestDeps(t, "http://unused")
	st := deps.OpenStore(deps.Config)

	id, err := st.SaveAgenda(store.Agenda{
		Title:     "Original",
		Checklist: []string{"One"},
	}, time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	out, err := execute(t, NewAgendaCommand(deps), "update", id,
		"--checklist", "One", "--checklist", "Two")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Two")

	updated, err := st.GetAgenda(id)
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, []string{"One", "Two"}, updated.Checklist)
}

func TestAgendaUpdateNothingToDo(t *testing.T) {
	deps := newTestDeps(t, "http://unused")
	st := deps.OpenStore(deps.Config)

	id, err := st.SaveAgenda(store.Agenda{Title: "Original"}, time.Now())
	require.NoError(t, err)

	_, err = execute(t, NewAgendaCommand(deps), "update", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestAgendaListJSON(t *testing.T) {
	deps := newTestDeps(t, "http://unused")
	st := deps.OpenStore(deps.Config)

	_, err := st.SaveAgenda(store.Agenda{Title: "Weekly sync"}, time.Now())
	require.NoError(t, err)

	out, err := execute(t, NewAgendaCommand(deps), "list", "-o", "json")
	require.NoError(t, err)

	var agendas []store.Agenda
	require.NoError(t, json.Unmarshal([]byte(out), &agendas))
	require.Len(t, agendas, 1)
	assert.Equal(t, "Weekly sync", agendas[0].Title)
}
