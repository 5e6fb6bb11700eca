package container

import "fmt"

// StreamType identifies the standard stream a multiplexed log frame was
// written to.
type StreamType byte

const (
	Stdin  StreamType = 0
	Stdout StreamType = 1
	Stderr StreamType = 2
)

func (s StreamType) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// LogEvent is one frame of a container log stream.
type LogEvent struct {
	Stream  StreamType
	Payload []byte
}

func (e LogEvent) String() string {
	return string(e.Payload)
}
