package session

import (
	"errors"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/session/session_models"
)

// IndexAnnotation adds every cited source of a run to sess, using the step
// results to recover the source text.
func IndexAnnotation(sess Session, runID string, ann *core.Annotation) (int, error) {
	if sess == nil || ann == nil {
		return 0, nil
	}
	texts := make(map[string]string)
	for _, step := range ann.ExecutedSteps {
		for link, text := range resultTexts(step.Result) {
			if _, seen := texts[step.ID+"|"+link]; !seen {
				texts[step.ID+"|"+link] = text
			}
		}
	}

	var errs []error
	n := 0
	for _, src := range ann.Sources {
		docID, err := helpers.URLFingerprint(src.URL)
		if err != nil {
			docID = src.URL
		}
		err = sess.AddSource(session_models.SourceDoc{
			DocID:  docID,
			RunID:  runID,
			StepID: src.StepID,
			Marker: src.Marker,
			URL:    src.URL,
			Title:  src.Title,
			Text:   texts[src.StepID+"|"+src.URL],
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func resultTexts(result core.ToolResult) map[string]string {
	out := map[string]string{}
	switch r := result.(type) {
	case core.SearchResult:
		for _, item := range r.Results {
			out[item.URL] = item.Content
		}
	case core.RetrieveResult:
		for _, item := range r.Results {
			out[item.URL] = item.Content
		}
	case core.VideoResult:
		for _, v := range r.Videos {
			out[v.Link] = v.Snippet
		}
	}
	return out
}
