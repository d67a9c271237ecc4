package events

import "linkednotes/cmd/internal/contract"

type SocketEvent interface {
	GetType() contract.EventType
}

type Ack struct{}

func (*Ack) GetType() contract.EventType {
	return contract.EventAck
}

type NoteCreated struct {
	*contract.NoteResponse
}

func (e *NoteCreated) GetType() contract.EventType {
	return contract.EventNoteCreated
}

type NoteUpdated struct {
	*contract.NoteResponse
}

func (e *NoteUpdated) GetType() contract.EventType {
	return contract.EventNoteUpdated
}

type NoteDeleted struct {
	NoteID int64 `json:"id"`
}

func (e *NoteDeleted) GetType() contract.EventType {
	return contract.EventNoteDeleted
}

// Envelope wraps ev in the {type, data} message sent over the socket.
func Envelope(ev SocketEvent) *contract.OutgoingSocketMessage {
	msg := &contract.OutgoingSocketMessage{Type: ev.GetType()}
	if _, isAck := ev.(*Ack); !isAck {
		msg.Data = ev
	}
	return msg
}
