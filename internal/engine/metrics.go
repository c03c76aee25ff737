package engine

// Recorder receives engine activity for metrics. Implementations must be
// cheap; they are called inline on every event.
type Recorder interface {
	Event(kind string)
	MatchAttempted()
	MatchFailed()
	Replayed()
	Committed()
	BucketFull()
	Aborted(reason string, methods int)
	Fault(code string)
}

type noopRecorder struct{}

func (noopRecorder) Event(string)        {}
func (noopRecorder) MatchAttempted()     {}
func (noopRecorder) MatchFailed()        {}
func (noopRecorder) Replayed()           {}
func (noopRecorder) Committed()          {}
func (noopRecorder) BucketFull()         {}
func (noopRecorder) Aborted(string, int) {}
func (noopRecorder) Fault(string)        {}
