package models

// BibleInsight is the structured topic research produced by one upstream call.
type BibleInsight struct {
	Topic             string   `json:"topic"`
	Explanation       string   `json:"explanation"`
	Verses            []string `json:"verses"`
	HistoricalContext string   `json:"historicalContext"`
}
