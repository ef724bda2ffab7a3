package observatory

// TollStation is one entry of the operator pass summary.
type TollStation struct {
	StationName     string  `json:"stationName"`
	Lat             float64 `json:"lat"`
	Long            float64 `json:"long"`
	StationOperator string  `json:"stationOperator"`
	Price1          float64 `json:"Price1"`
	Price2          float64 `json:"Price2"`
	Price3          float64 `json:"Price3"`
	Price4          float64 `json:"Price4"`
	NPasses         int     `json:"nPasses"`
	TotalPassCharge float64 `json:"totalPassCharge"`
}

// DebtEntry is one counterparty owed money for the selected period.
type DebtEntry struct {
	TollOpID   string  `json:"tollOpID"`
	PassesCost float64 `json:"passesCost"`
}

// Health is the admin healthcheck payload.
type Health struct {
	Status    string `json:"status"`
	NStations int    `json:"n_stations"`
	NTags     int    `json:"n_tags"`
	NPasses   int    `json:"n_passes"`
}

// OK reports whether the backend considers itself healthy.
func (h Health) OK() bool { return h.Status == "OK" }

type loginResponse struct {
	Token string `json:"token"`
}

type operatorIDResponse struct {
	OpID string `json:"OpID"`
}

type passSummaryResponse struct {
	TollStations []TollStation `json:"tollStations"`
}

type owedByResponse struct {
	TOpList []DebtEntry `json:"tOpList"`
}

type actionResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
}

type errorResponse struct {
	Message string `json:"message"`
	Info    string `json:"info"`
}
