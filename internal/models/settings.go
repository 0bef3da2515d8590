package models

// FilterMode selects the visual effect applied to a filtered element
type FilterMode string

// Filter mode constants
const (
	ModeBlur   FilterMode = "blur"   // blur in place, click to reveal
	ModeCensor FilterMode = "censor" // opaque block, click to restore
	ModeRemove FilterMode = "remove" // detach from the document, irreversible
)

// DefaultMode is used on first run and for unrecognized values
const DefaultMode = ModeBlur

// ParseMode validates a mode string, falling back to DefaultMode
func ParseMode(s string) (FilterMode, bool) {
	switch FilterMode(s) {
	case ModeBlur, ModeCensor, ModeRemove:
		return FilterMode(s), true
	}
	return DefaultMode, false
}

// Settings is the persisted filter configuration
type Settings struct {
	Keywords   []string   `mapstructure:"keywords"`
	FilterMode FilterMode `mapstructure:"filter_mode"`
}

// DefaultSettings returns the first-run configuration: no keywords, blur mode
func DefaultSettings() Settings {
	return Settings{
		Keywords:   []string{},
		FilterMode: DefaultMode,
	}
}

// AttrFiltered marks an element while a filter effect is active on it.
// Its value is the FilterMode that was applied.
const AttrFiltered = "data-cs-filtered"
