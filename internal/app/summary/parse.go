package summary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// ParseResult decodes model output into a SummaryResult.
// When the whole text is not JSON, the substring from the first '{' to the
// last '}' is tried once more. A literal null is treated as malformed.
func ParseResult(text string) (domain.SummaryResult, error) {
	res, err := decode(text)
	if err == nil {
		return normalize(res)
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return domain.SummaryResult{}, &domain.UnparseableError{Raw: text, Err: err}
	}

	res, subErr := decode(text[first : last+1])
	if subErr != nil {
		return domain.SummaryResult{}, &domain.UnparseableError{Raw: text, Err: subErr}
	}
	return normalize(res)
}

func decode(s string) (*domain.SummaryResult, error) {
	var res *domain.SummaryResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &res); err != nil {
		return nil, err
	}
	return res, nil
}

func normalize(res *domain.SummaryResult) (domain.SummaryResult, error) {
	if res == nil {
		return domain.SummaryResult{}, fmt.Errorf("%w: model returned null", domain.ErrMalformedUpstream)
	}
	if res.ActionItems == nil {
		res.ActionItems = []string{}
	}
	return *res, nil
}
