package model

import "slices"

const (
	DefaultDivisor = 3
	DefaultCountry = "US"

	// SpecialCaseNone is the option that maps to an empty SpecialCases list.
	SpecialCaseNone = "None"
)

var (
	DivisorOptions     = []int{3, 5, 7, 10}
	CountryOptions     = []string{"US", "FR", "CA", "UK"}
	SpecialCaseOptions = []string{SpecialCaseNone, "Twist", "Bonus", "Holiday"}
)

// Config is the engine configuration held by the remote config store.
type Config struct {
	RandomDivisor int      `json:"randomDivisor"`
	Country       string   `json:"country"`
	SpecialCases  []string `json:"specialCases"`
}

// DefaultConfig returns the configuration used until the remote copy loads.
func DefaultConfig() Config {
	return Config{
		RandomDivisor: DefaultDivisor,
		Country:       DefaultCountry,
		SpecialCases:  []string{},
	}
}

// WithDefaults fills a zero divisor, an empty country and a nil special
// case list from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.RandomDivisor == 0 {
		c.RandomDivisor = DefaultDivisor
	}
	if c.Country == "" {
		c.Country = DefaultCountry
	}
	if c.SpecialCases == nil {
		c.SpecialCases = []string{}
	}
	return c
}

// SpecialCase returns the selected special case option, SpecialCaseNone
// when the list is empty.
func (c Config) SpecialCase() string {
	if len(c.SpecialCases) == 0 {
		return SpecialCaseNone
	}
	return c.SpecialCases[0]
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.SpecialCases = slices.Clone(c.SpecialCases)
	if c.SpecialCases == nil {
		c.SpecialCases = []string{}
	}
	return c
}
