package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ZeroAmountLinePolicy controls what happens to free (zero amount) lines.
type ZeroAmountLinePolicy string

const (
	// ZeroAmountLinesDrop removes free lines from the invoice entirely.
	ZeroAmountLinesDrop ZeroAmountLinePolicy = "drop"
	// ZeroAmountLinesKeep keeps free lines as zero-vat lines.
	ZeroAmountLinesKeep ZeroAmountLinePolicy = "keep"
)

// FlattenMode controls how parent/child line trees are flattened.
type FlattenMode string

const (
	// FlattenSummary keeps the parent as a summary line and emits children
	// as separate sub-lines.
	FlattenSummary FlattenMode = "summary"
	// FlattenMerge folds child amounts into the parent line.
	FlattenMerge FlattenMode = "merge"
)

// InvoiceSettings are the operator-tunable knobs of the invoice pipeline.
// They live in a YAML file so a running service picks up changes without
// a restart.
type InvoiceSettings struct {
	// Concept sends invoices as Acumulus concepts instead of final entries.
	Concept bool `mapstructure:"concept"`
	// ZeroAmountLines is the policy for free lines.
	ZeroAmountLines ZeroAmountLinePolicy `mapstructure:"zeroAmountLines"`
	// FlattenMode is the policy for composed-product line trees.
	FlattenMode FlattenMode `mapstructure:"flattenMode"`
	// TriggerStatuses are the shop order statuses that make an order
	// invoiceable. This deliberately overrides the shop's own notion of
	// "paid": a shop may consider an order complete before the merchant
	// wants it booked.
	TriggerStatuses []string `mapstructure:"triggerStatuses"`
}

// DefaultInvoiceSettings returns the settings used when no file is present.
func DefaultInvoiceSettings() InvoiceSettings {
	return InvoiceSettings{
		Concept:         false,
		ZeroAmountLines: ZeroAmountLinesKeep,
		FlattenMode:     FlattenSummary,
		TriggerStatuses: []string{"processing", "completed", "refunded"},
	}
}

// InvoiceSettingsHolder hands out the current settings snapshot.
type InvoiceSettingsHolder struct {
	current atomic.Value // holds InvoiceSettings
}

// NewInvoiceSettingsHolder reads invoice settings from an `invoice.yml`
// file and watches it for changes.
func NewInvoiceSettingsHolder() (*InvoiceSettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("invoice")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/acumulus-sync/config")
	v.AddConfigPath("/etc/acumulus-sync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ACUMULUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultInvoiceSettings()
		v.SetDefault("invoice.concept", defaults.Concept)
		v.SetDefault("invoice.zeroAmountLines", string(defaults.ZeroAmountLines))
		v.SetDefault("invoice.flattenMode", string(defaults.FlattenMode))
		v.SetDefault("invoice.triggerStatuses", defaults.TriggerStatuses)
	}

	var settings InvoiceSettings
	if err := v.UnmarshalKey("invoice", &settings); err != nil {
		return nil, err
	}
	if err := validateInvoiceSettings(settings); err != nil {
		return nil, err
	}

	holder := &InvoiceSettingsHolder{}
	holder.current.Store(settings)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoiceSettings
		if err := v.UnmarshalKey("invoice", &updated); err != nil {
			log.Printf("[invoice-settings] reload failed: %v", err)
			return
		}
		if err := validateInvoiceSettings(updated); err != nil {
			log.Printf("[invoice-settings] invalid settings ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoice-settings] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticInvoiceSettingsHolder wraps fixed settings without file
// watching. Meant for tests and one-shot tooling.
func NewStaticInvoiceSettingsHolder(s InvoiceSettings) *InvoiceSettingsHolder {
	holder := &InvoiceSettingsHolder{}
	holder.current.Store(s)
	return holder
}

// Get returns the current settings snapshot.
func (h *InvoiceSettingsHolder) Get() InvoiceSettings {
	return h.current.Load().(InvoiceSettings)
}

func validateInvoiceSettings(s InvoiceSettings) error {
	switch s.ZeroAmountLines {
	case ZeroAmountLinesDrop, ZeroAmountLinesKeep:
	default:
		return errors.New("invoice.zeroAmountLines must be 'drop' or 'keep'")
	}
	switch s.FlattenMode {
	case FlattenSummary, FlattenMerge:
	default:
		return errors.New("invoice.flattenMode must be 'summary' or 'merge'")
	}
	if len(s.TriggerStatuses) == 0 {
		return errors.New("invoice.triggerStatuses cannot be empty")
	}
	return nil
}
