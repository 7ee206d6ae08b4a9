package sim

// Canvas and motion constants used when no EngineConfig overrides them.
const (
	DefaultWidth             float32 = 1920
	DefaultHeight            float32 = 1080
	DefaultBoundsMargin      float32 = 50
	DefaultArrivalRadius     float32 = 5
	DefaultResponseSizeRatio float32 = 10
	DefaultSeed              int64   = 42
)

// EngineConfig groups the construction parameters of an Engine.
type EngineConfig struct {
	MaxPackets        int     // packet pool capacity (must be >= 0)
	Width             float32 // visualization bounds for free-flight packets
	Height            float32
	BoundsMargin      float32 // free-flight packets beyond bounds ± margin expire
	ArrivalRadius     float32 // a chasing packet closer than this has arrived
	ResponseSizeRatio float32 // response size = request size × ratio
	Seed              int64   // seeds the spawn RNG when no RandomSource is given
}

// DefaultEngineConfig returns the stock configuration for a pool of maxPackets.
func DefaultEngineConfig(maxPackets int) EngineConfig {
	return EngineConfig{
		MaxPackets:        maxPackets,
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		BoundsMargin:      DefaultBoundsMargin,
		ArrivalRadius:     DefaultArrivalRadius,
		ResponseSizeRatio: DefaultResponseSizeRatio,
		Seed:              DefaultSeed,
	}
}

// outOfBounds reports whether (x, y) lies outside the visualization bounds
// extended by the margin.
func (c EngineConfig) outOfBounds(x, y float32) bool {
	return x < -c.BoundsMargin || x > c.Width+c.BoundsMargin ||
		y < -c.BoundsMargin || y > c.Height+c.BoundsMargin
}
