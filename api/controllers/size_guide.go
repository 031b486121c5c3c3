package controllers

import (
	"net/http"

	"github.com/angelmondragon/maison-storefront/api/responses"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
)

type SizeMeasurementResponse struct {
	Size  string `json:"size"`
	Bust  string `json:"bust_in"`
	Waist string `json:"waist_in"`
	Hips  string `json:"hips_in"`
}

type FitNoteResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SizeGuideResponse struct {
	System       string                    `json:"system"`
	Measurements []SizeMeasurementResponse `json:"measurements"`
	Fits         []FitNoteResponse         `json:"fits"`
	Care         []string                  `json:"care"`
}

// SizeGuideFetch serves the static size chart. It does not touch session state.
func SizeGuideFetch() http.HandlerFunc {
	resp := sizeGuideResponse(catalog.DefaultSizeGuide())
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, resp)
	}
}

func sizeGuideResponse(guide catalog.SizeGuide) SizeGuideResponse {
	resp := SizeGuideResponse{
		System:       guide.System,
		Measurements: make([]SizeMeasurementResponse, 0, len(guide.Measurements)),
		Fits:         make([]FitNoteResponse, 0, len(guide.Fits)),
		Care:         append([]string{}, guide.Care...),
	}
	for _, m := range guide.Measurements {
		resp.Measurements = append(resp.Measurements, SizeMeasurementResponse{Size: m.Size, Bust: m.Bust, Waist: m.Waist, Hips: m.Hips})
	}
	for _, f := range guide.Fits {
		resp.Fits = append(resp.Fits, FitNoteResponse{Name: f.Name, Description: f.Description})
	}
	return resp
}
