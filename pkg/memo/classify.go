package memo

import "strings"

// classificationTable maps marker substrings to event kinds. Order
// defines matching priority, the first kind any of whose markers is
// contained in the payload wins.
var classificationTable = []struct {
	kind    Kind
	markers []string
}{
	{Proposal, []string{ProposalShortMarker, ProposalMarker}},
	{Acceptance, []string{AcceptanceMarker}},
	{Refusal, []string{RefusalMarker}},
	{VerificationPrompt, []string{VerificationPromptMarker}},
	{VerificationResponse, []string{VerificationResponseMarker}},
	{Reward, []string{RewardMarker}},
	{TaskOutput, []string{TaskOutputMarker}},
	{UserGenesis, []string{UserGenesisMarker}},
	{RequestPostFiat, []string{RequestPostFiatMarker}},
}

// Classify assigns an event kind to the given payload text by matching
// it against the fixed marker table.
func Classify(payload string) Kind {
	for _, row := range classificationTable {
		for _, m := range row.markers {
			if strings.Contains(payload, m) {
				return row.kind
			}
		}
	}
	return Unknown
}

// StripMarker removes a leading protocol marker (and the space following
// it) from the payload text.
func StripMarker(payload, marker string) string {
	payload = strings.Replace(payload, marker+" ", "", 1)
	return strings.Replace(payload, marker, "", 1)
}
