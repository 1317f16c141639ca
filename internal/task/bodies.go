package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/applypilot/applypilot-api/internal/automation"
)

// Body is the kind-specific automation work of one attempt. It receives the
// exclusively borrowed driver and the task (for its payload), and returns an
// opaque success value. Errors should carry the automation sentinels so the
// classifier can categorize them.
type Body interface {
	Run(ctx context.Context, driver automation.Driver, t *Task) (json.RawMessage, error)
}

// BodyFunc adapts a function to the Body interface.
type BodyFunc func(ctx context.Context, driver automation.Driver, t *Task) (json.RawMessage, error)

// Run implements Body.
func (f BodyFunc) Run(
	ctx context.Context,
	driver automation.Driver,
	t *Task,
) (json.RawMessage, error) {
	return f(ctx, driver, t)
}

// SearchBody runs a job search through the driver.
func SearchBody() Body {
	return BodyFunc(func(
		ctx context.Context,
		driver automation.Driver,
		t *Task,
	) (json.RawMessage, error) {
		var p SearchPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return nil, fmt.Errorf("invalid search payload: %w", err)
		}

		result, err := driver.Search(ctx, p.Criteria)
		if err != nil {
			return nil, err
		}
		return marshalResult(result)
	})
}

// ApplyBody submits one application through the driver.
func ApplyBody() Body {
	return BodyFunc(func(
		ctx context.Context,
		driver automation.Driver,
		t *Task,
	) (json.RawMessage, error) {
		var p ApplyPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return nil, fmt.Errorf("invalid apply payload: %w", err)
		}

		result, err := driver.Apply(ctx, p.Job, p.Resume)
		if err != nil {
			return nil, err
		}
		return marshalResult(result)
	})
}

// GenerateResumeBody fetches the posting text through the driver and has the
// tailor produce a job-specific resume artifact.
func GenerateResumeBody(tailor automation.ResumeTailor) Body {
	return BodyFunc(func(
		ctx context.Context,
		driver automation.Driver,
		t *Task,
	) (json.RawMessage, error) {
		var p GenerateResumePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return nil, fmt.Errorf("invalid generate-resume payload: %w", err)
		}

		description, err := driver.JobDescription(ctx, p.Job)
		if err != nil {
			return nil, err
		}

		artifact, err := tailor.TailorResume(ctx, p.Job, description)
		if err != nil {
			return nil, err
		}
		return marshalResult(artifact)
	})
}

// DefaultBodies returns the standard kind → body registry.
func DefaultBodies(tailor automation.ResumeTailor) map[Kind]Body {
	return map[Kind]Body{
		KindSearch:         SearchBody(),
		KindApply:          ApplyBody(),
		KindGenerateResume: GenerateResumeBody(tailor),
	}
}

func marshalResult(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task result: %w", err)
	}
	return data, nil
}
