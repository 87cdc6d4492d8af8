package domain

type Phase int

const (
	Empty Phase = iota
	Ready
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmissionState is the single source of truth read by the presentation layer.
// Image stays attached after a submission settles so the same picture can be
// submitted again without re-selecting it.
type SubmissionState struct {
	Phase    Phase
	Image    *NormalizedImage
	Critique CritiqueResult
	Error    string
}

type EventKind int

const (
	ImageSelected EventKind = iota
	ImageNormalized
	NormalizationFailed
	ImageRemoved
	GenerateRequested
	AnalysisSucceeded
	AnalysisFailed
)

func (k EventKind) String() string {
	switch k {
	case ImageSelected:
		return "image_selected"
	case ImageNormalized:
		return "image_normalized"
	case NormalizationFailed:
		return "normalization_failed"
	case ImageRemoved:
		return "image_removed"
	case GenerateRequested:
		return "generate_requested"
	case AnalysisSucceeded:
		return "analysis_succeeded"
	case AnalysisFailed:
		return "analysis_failed"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Image    *NormalizedImage
	Critique CritiqueResult
	Err      error
}

// Apply returns the state that follows s on e. A rejected event yields s
// unchanged together with the reason.
func (s SubmissionState) Apply(e Event) (SubmissionState, error) {
	switch e.Kind {
	case ImageSelected:
		// the previous image and result are cleared right away so nothing can be
		// submitted until the replacement has been normalized
		return SubmissionState{Phase: Empty}, nil

	case ImageNormalized:
		if e.Image == nil {
			return s, ErrNoImage
		}
		if s.Phase != Empty && s.Phase != Ready {
			return s, ErrInvalidTransition
		}
		return SubmissionState{Phase: Ready, Image: e.Image}, nil

	case NormalizationFailed:
		if s.Phase != Empty && s.Phase != Ready {
			return s, ErrInvalidTransition
		}
		return s, nil

	case ImageRemoved:
		return SubmissionState{Phase: Empty}, nil

	case GenerateRequested:
		switch s.Phase {
		case Submitting:
			return s, ErrSubmissionInFlight
		case Empty:
			return s, ErrNoImage
		}
		if s.Image == nil {
			return s, ErrNoImage
		}
		return SubmissionState{Phase: Submitting, Image: s.Image}, nil

	case AnalysisSucceeded:
		if s.Phase != Submitting {
			return s, ErrInvalidTransition
		}
		return SubmissionState{Phase: Succeeded, Image: s.Image, Critique: e.Critique}, nil

	case AnalysisFailed:
		if s.Phase != Submitting {
			return s, ErrInvalidTransition
		}
		return SubmissionState{Phase: Failed, Image: s.Image, Error: FailureMessage}, nil
	}

	return s, ErrInvalidTransition
}

// Busy reports whether a submission is in flight.
func (s SubmissionState) Busy() bool {
	return s.Phase == Submitting
}
