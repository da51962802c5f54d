package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestMachine_HappyPath(t *testing.T) {
	m := New()
	assert.Equal(t, StateClosed, m.State())

	require.NoError(t, m.Open(map[string]string{"texto_original": "hola"}))
	assert.Equal(t, StateOpen, m.State())

	require.NoError(t, m.Edit("clasificacion", "Normal"))
	assert.Equal(t, map[string]string{"texto_original": "hola", "clasificacion": "Normal"}, m.Form())

	require.NoError(t, m.Submit(Pending{Kind: "edit_history", Target: "7", Prompt: "Save changes?", Run: noop}))
	assert.Equal(t, StateConfirming, m.State())
	require.NotNil(t, m.Pending())

	p, err := m.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "edit_history", p.Kind)
	assert.Equal(t, StateClosed, m.State())
	assert.Nil(t, m.Pending())
	assert.Empty(t, m.Form())
}

func TestMachine_Cancel(t *testing.T) {
	m := New()
	require.NoError(t, m.Open(nil))
	require.NoError(t, m.Cancel())
	assert.Equal(t, StateClosed, m.State())

	require.NoError(t, m.Open(nil))
	require.NoError(t, m.Submit(Pending{Run: noop}))
	require.NoError(t, m.Cancel())
	assert.Equal(t, StateClosed, m.State())
	assert.Nil(t, m.Pending())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
		event func(m *Machine) error
		from  State
	}{
		{"confirm while closed", func(m *Machine) {}, func(m *Machine) error { _, err := m.Confirm(); return err }, StateClosed},
		{"cancel while closed", func(m *Machine) {}, func(m *Machine) error { return m.Cancel() }, StateClosed},
		{"edit while closed", func(m *Machine) {}, func(m *Machine) error { return m.Edit("a", "b") }, StateClosed},
		{"submit while closed", func(m *Machine) {}, func(m *Machine) error { return m.Submit(Pending{Run: noop}) }, StateClosed},
		{"open twice", func(m *Machine) { _ = m.Open(nil) }, func(m *Machine) error { return m.Open(nil) }, StateOpen},
		{"confirm before submit", func(m *Machine) { _ = m.Open(nil) }, func(m *Machine) error { _, err := m.Confirm(); return err }, StateOpen},
		{"edit while confirming", func(m *Machine) {
			_ = m.Open(nil)
			_ = m.Submit(Pending{Run: noop})
		}, func(m *Machine) error { return m.Edit("a", "b") }, StateConfirming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.setup(m)
			err := tt.event(m)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.from, te.From)
			assert.Equal(t, tt.from, m.State(), "state unchanged")
		})
	}
}

func TestMachine_SubmitRequiresAction(t *testing.T) {
	m := New()
	require.NoError(t, m.Open(nil))
	assert.Error(t, m.Submit(Pending{Kind: "delete_user"}))
	assert.Equal(t, StateOpen, m.State())
}

func TestMachine_FormIsCopied(t *testing.T) {
	form := map[string]string{"a": "1"}
	m := New()
	require.NoError(t, m.Open(form))

	form["a"] = "changed"
	got := m.Form()
	got["b"] = "2"

	assert.Equal(t, map[string]string{"a": "1"}, m.Form())
}
