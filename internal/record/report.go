package record

import "fmt"

// Summary aggregates execution records.
type Summary struct {
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Unknown  int    `json:"unknown"`
	PassRate string `json:"pass_rate"`
}

// Summarize counts records by status. PassRate is passed/total as a
// percentage with two decimals, or "0%" when there are no records.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		default:
			s.Unknown++
		}
	}
	if s.Total == 0 {
		s.PassRate = "0%"
		return s
	}
	s.PassRate = fmt.Sprintf("%.2f%%", float64(s.Passed)/float64(s.Total)*100)
	return s
}
