// Package uci is the UCI data model: the Command/Response/Notification
// variants exchanged between the dispatcher and a HAL implementation
// (spec.md §3), and the Status codes those messages carry.
package uci

// Status is the UCI status code carried by responses and generic-error
// notifications (spec.md §3).
type Status uint8

const (
	StatusOk Status = iota
	StatusFailed
	StatusRejected
	// StatusCommandRetry is the distinguished code the chip uses to ask
	// the host to resend the in-flight command without consuming a retry
	// credit (spec.md §4.4.3, §4.4.2, §9).
	StatusCommandRetry
	StatusSyntaxError
	StatusInvalidParam
	StatusUnknownGID
	StatusUnknownOID
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusRejected:
		return "REJECTED"
	case StatusCommandRetry:
		return "COMMAND_RETRY"
	case StatusSyntaxError:
		return "SYNTAX_ERROR"
	case StatusInvalidParam:
		return "INVALID_PARAM"
	case StatusUnknownGID:
		return "UNKNOWN_GID"
	case StatusUnknownOID:
		return "UNKNOWN_OID"
	default:
		return "UNKNOWN_STATUS"
	}
}

// MessageType is the UCI wire message-type field (spec.md §6).
type MessageType uint8

const (
	MTCommand MessageType = iota
	MTResponse
	MTNotification
	MTVendor
)

// GroupID and OpcodeID together address a UCI packet's gid/oid (spec.md
// §6's "group id (gid), opcode (oid)").
type GroupID uint8
type OpcodeID uint8

// PacketHeader is the minimal addressing triple the defragmenter keys
// partial packets on (spec.md §4.1), and that every Command/Response/
// Notification variant below carries.
type PacketHeader struct {
	Type MessageType
	GID  GroupID
	OID  OpcodeID
}
