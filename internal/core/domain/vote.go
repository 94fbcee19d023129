package domain

// VotePayload is what the authority needs to tally one response: both chits in
// plain text plus their unblinded signatures (base-36).
type VotePayload struct {
	MeChit             string `json:"meChit"`
	MeChitSigned       string `json:"meChitSigned"`
	ResponseChit       string `json:"responseChit"`
	ResponseChitSigned string `json:"responseChitSigned"`
	Ranking            int    `json:"ranking"`
}

// VoteRecord is one anonymized entry of the authority's report for a question.
// Chit numbers are decimal strings.
type VoteRecord struct {
	QuestionID         int64  `json:"questionID"`
	Response           string `json:"response"`
	Ranking            int    `json:"ranking"`
	VoterChitNumber    string `json:"voterChitNumber"`
	ResponseChitNumber string `json:"responseChitNumber"`
}

// RecordsForQuestion drops records that belong to other questions.
func RecordsForQuestion(questionID int64, records []VoteRecord) []VoteRecord {
	out := make([]VoteRecord, 0, len(records))
	for _, r := range records {
		if r.QuestionID == questionID {
			out = append(out, r)
		}
	}
	return out
}
