package stcp

// State is one of the nine connection states named in the data model.
type State int

const (
	Listen State = iota
	SynSent
	SynReceived
	Established
	FinWait1
	FinWait2
	CloseWait
	LastAck
	Closed
)

func (s State) String() string {
	switch s {
	case Listen:
		return "LISTEN"
	case SynSent:
		return "SYN_SENT"
	case SynReceived:
		return "SYN_RECEIVED"
	case Established:
		return "ESTABLISHED"
	case FinWait1:
		return "FIN_WAIT_1"
	case FinWait2:
		return "FIN_WAIT_2"
	case CloseWait:
		return "CLOSE_WAIT"
	case LastAck:
		return "LAST_ACK"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// terminalLeaning reports whether the retransmission scheduler must treat
// this state as dead on an expired entry per the Go-Back-N rule: CLOSED,
// LAST_ACK, FIN_WAIT_1 and FIN_WAIT_2 all qualify.
func (s State) terminalLeaning() bool {
	switch s {
	case Closed, LastAck, FinWait1, FinWait2:
		return true
	default:
		return false
	}
}
