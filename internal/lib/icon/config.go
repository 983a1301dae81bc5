package icon

// Config holds the icon rendering and orientation settings
type Config struct {
	SvgViewboxDim      float64         `koanf:"svg_viewbox_dim"`      // pixels
	SvgZoom            int             `koanf:"svg_zoom"`             // projection zoom of the icon
	AngleDistance      float64         `koanf:"angle_distance"`       // meters between the anchor and a bearing reference point
	SearchAroundFactor float64         `koanf:"search_around_factor"` // street query radius = SvgViewboxDim * factor
	IndexThreshold     int             `koanf:"index_threshold"`      // routes with more points use an R-tree, 0 disables
	Directions         DirectionAngles `koanf:"directions"`
	Places             PlaceDistances  `koanf:"-"`
}

// DirectionAngles are the upper bounds, in degrees, of every turn class.
// Directions are measured counterclockwise with 90 meaning straight on.
type DirectionAngles struct {
	Right       float64 `koanf:"right"`
	SlightRight float64 `koanf:"slight_right"`
	Continue    float64 `koanf:"continue"`
	SlightLeft  float64 `koanf:"slight_left"`
	Left        float64 `koanf:"left"`
	SharpLeft   float64 `koanf:"sharp_left"`
	SharpRight  float64 `koanf:"sharp_right"`
}

// PlaceDistances is the radius, in meters, inside which a place node of each
// kind names the location
type PlaceDistances struct {
	Hamlet  float64 `koanf:"hamlet"`
	Village float64 `koanf:"village"`
	City    float64 `koanf:"city"`
	Town    float64 `koanf:"town"`
}

// Max returns the largest place radius
func (d PlaceDistances) Max() float64 {
	max := d.Hamlet
	for _, v := range []float64{d.Village, d.City, d.Town} {
		if v > max {
			max = v
		}
	}
	return max
}

// For returns the radius of a place kind
func (d PlaceDistances) For(place string) (float64, bool) {
	switch place {
	case "hamlet":
		return d.Hamlet, true
	case "village":
		return d.Village, true
	case "city":
		return d.City, true
	case "town":
		return d.Town, true
	}
	return 0, false
}

// DefaultPlaceDistances returns the geocoder defaults
func DefaultPlaceDistances() PlaceDistances {
	return PlaceDistances{
		Hamlet:  400,
		Village: 1500,
		City:    1200,
		Town:    1500,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		SvgViewboxDim:      200,
		SvgZoom:            17,
		AngleDistance:      10,
		SearchAroundFactor: 1.5,
		IndexThreshold:     5000,
		Directions: DirectionAngles{
			Right:       35,
			SlightRight: 80,
			Continue:    100,
			SlightLeft:  145,
			Left:        200,
			SharpLeft:   270,
			SharpRight:  340,
		},
		Places: DefaultPlaceDistances(),
	}
}
