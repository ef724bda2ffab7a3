package models

import "tollboard/internal/observatory"

// StationView is one toll station prepared for map display. Never
// persisted; rebuilt from scratch on every load.
type StationView struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Owned       bool     `json:"owned"`
	Operator    string   `json:"operator"`
	PriceLabels []string `json:"prices"`
	Passes      int      `json:"passes"`
	TotalCharge string   `json:"totalCharge"`
}

// StationViews maps the pass summary onto markers. A station counts as
// owned when its operator matches the queried operator id.
func StationViews(stations []observatory.TollStation, operatorID string) []StationView {
	views := make([]StationView, 0, len(stations))
	for i, s := range stations {
		labels := []string{Euro(s.Price1), Euro(s.Price2), Euro(s.Price3), Euro(s.Price4)}
		views = append(views, StationView{
			ID:          i,
			Name:        s.StationName,
			Lat:         s.Lat,
			Lng:         s.Long,
			Owned:       s.StationOperator == operatorID,
			Operator:    s.StationOperator,
			PriceLabels: labels,
			Passes:      s.NPasses,
			TotalCharge: Euro(s.TotalPassCharge),
		})
	}
	return views
}
