// Package numerator defines the contract for document reference numbering.
package numerator

// Strategy selects how numbers are allocated.
type Strategy int

const (
	// StrategyStrict allocates one number per call with UPDATE ... RETURNING.
	// Sequential without gaps; use for accounting documents whose number
	// becomes a journal reference.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges in memory. Faster, may leave gaps on
	// restart; acceptable for internal drafts.
	StrategyCached
)

// Options configures number allocation.
type Options struct {
	Strategy Strategy

	// RangeSize is how many numbers StrategyCached reserves at once.
	// Default 50.
	RangeSize int64
}

// DefaultOptions returns strict allocation.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config holds the number format for one document kind.
type Config struct {
	// Prefix prepended to every number (e.g. "PO", "INV")
	Prefix string

	// IncludeYear adds the period year to the number
	IncludeYear bool

	// PadWidth is the minimum sequence width (default 6)
	PadWidth int

	// ResetPeriod: "year" or "never"
	ResetPeriod string
}

// DefaultConfig returns the house format: PREFIX-YEAR-NNNNNN, yearly reset.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    6,
		ResetPeriod: "year",
	}
}
