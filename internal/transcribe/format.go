package transcribe

import (
	"fmt"
	"strings"
)

// FormatUtterances renders diarized utterances one per line as
// "Speaker N: text". The ordinal is derived from the provider's
// single-letter speaker label (A is 1, B is 2, ...), so repeated labels
// map to the same ordinal on every run.
func FormatUtterances(utterances []Utterance) string {
	var sb strings.Builder
	for i, u := range utterances {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("Speaker %s: %s", speakerOrdinal(u.Speaker), u.Text))
	}
	return sb.String()
}

// speakerOrdinal maps "A" to "1", "B" to "2", etc. Labels that are not a
// single uppercase letter are kept as-is.
func speakerOrdinal(label string) string {
	if len(label) == 1 && label[0] >= 'A' && label[0] <= 'Z' {
		return fmt.Sprintf("%d", label[0]-'A'+1)
	}
	return label
}
