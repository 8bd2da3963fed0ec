package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultInvoiceSettings(t *testing.T) {
	s := DefaultInvoiceSettings()

	assert.False(t, s.Concept)
	assert.Equal(t, ZeroAmountLinesKeep, s.ZeroAmountLines)
	assert.Equal(t, FlattenSummary, s.FlattenMode)
	assert.Equal(t, []string{"processing", "completed", "refunded"}, s.TriggerStatuses)
	assert.NoError(t, validateInvoiceSettings(s))
}

func TestValidateInvoiceSettings(t *testing.T) {
	s := DefaultInvoiceSettings()
	s.ZeroAmountLines = "maybe"
	assert.Error(t, validateInvoiceSettings(s))

	s = DefaultInvoiceSettings()
	s.FlattenMode = "explode"
	assert.Error(t, validateInvoiceSettings(s))

	s = DefaultInvoiceSettings()
	s.TriggerStatuses = nil
	assert.Error(t, validateInvoiceSettings(s))
}

func TestStaticInvoiceSettingsHolder(t *testing.T) {
	s := DefaultInvoiceSettings()
	s.Concept = true

	holder := NewStaticInvoiceSettingsHolder(s)
	assert.True(t, holder.Get().Concept)
}
