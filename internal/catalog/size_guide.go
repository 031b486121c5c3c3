package catalog

// SizeMeasurement is one row of the size chart, in inches.
type SizeMeasurement struct {
	Size  string
	Bust  string
	Waist string
	Hips  string
}

// FitNote describes one of the cuts used across the catalog.
type FitNote struct {
	Name        string
	Description string
}

// SizeGuide is the chart, fit notes and care instructions shown next to sized products.
type SizeGuide struct {
	System       string
	Measurements []SizeMeasurement
	Fits         []FitNote
	Care         []string
}

// DefaultSizeGuide returns the house size guide. Each call returns a new copy.
func DefaultSizeGuide() SizeGuide {
	return SizeGuide{
		System: "US",
		Measurements: []SizeMeasurement{
			{Size: "XS", Bust: "31-32", Waist: "24-25", Hips: "34-35"},
			{Size: "S", Bust: "33-34", Waist: "26-27", Hips: "36-37"},
			{Size: "M", Bust: "35-36", Waist: "28-29", Hips: "38-39"},
			{Size: "L", Bust: "37-39", Waist: "30-32", Hips: "40-42"},
			{Size: "XL", Bust: "40-42", Waist: "33-35", Hips: "43-45"},
		},
		Fits: []FitNote{
			{Name: "Regular Fit", Description: "Follows the body's silhouette with ease for comfortable movement."},
			{Name: "Oversized Fit", Description: "Designed with extra room for a relaxed, effortless look."},
			{Name: "Tailored Fit", Description: "Close-fitting design that follows natural body lines for a polished appearance."},
		},
		Care: []string{
			"Dry clean recommended for tailored pieces",
			"Hand wash cold for delicate fabrics",
			"Store on hangers to maintain shape",
			"Iron on low heat when needed",
		},
	}
}

// Measurement returns the chart row for size, if the chart has one.
func (g SizeGuide) Measurement(size string) (SizeMeasurement, bool) {
	for _, m := range g.Measurements {
		if m.Size == size {
			return m, true
		}
	}
	return SizeMeasurement{}, false
}
