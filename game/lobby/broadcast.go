package lobby

// broadcastLocked fans one frame out to every active connection except
// exclude and returns the number of recipients that accepted the frame.
// The recipient set is snapshotted before any send so that removals
// triggered mid-pass never disturb the iteration. Failed recipients are
// collected and unregistered only after the full pass; each
// unregistration may broadcast player_left to the now-smaller set,
// which terminates because unregistration strictly shrinks the active
// set and is idempotent.
func (l *Lobby) broadcastLocked(frame []byte, exclude Conn) int {
	recipients := make([]Conn, 0, len(l.conns))
	for c, s := range l.conns {
		if s.phase != phaseActive || c == exclude {
			continue
		}
		recipients = append(recipients, c)
	}

	var failed []Conn
	for _, c := range recipients {
		if !c.Send(frame) {
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		l.unregisterLocked(c)
	}
	return len(recipients) - len(failed)
}
