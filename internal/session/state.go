package session

// State is the lifecycle state of a dashboard summarization session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateLoadingMetadata
	StateReadyToSummarize
	StateSummarizing
	StateComplete
	StateDisconnected
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateConnecting:       "connecting",
	StateLoadingMetadata:  "loadingMetadata",
	StateReadyToSummarize: "readyToSummarize",
	StateSummarizing:      "summarizing",
	StateComplete:         "complete",
	StateDisconnected:     "disconnected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
