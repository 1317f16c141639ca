package automation

import "context"

// ResumeTailor produces a job-tailored resume artifact from a posting's
// description. The semantic quality of the output is the implementation's
// concern; the engine only moves the artifact around.
type ResumeTailor interface {
	TailorResume(ctx context.Context, job JobRef, description string) (*ResumeArtifact, error)
}
