package rf

import (
	"time"

	"barkback/internal/logger"
	"barkback/pkg/models"
)

const (
	// QueueSize bounds the transmitter's pending-command channel.
	QueueSize = 64
	// TransmitEndGrace is how long an expired entry keeps re-emitting its
	// zero sequence before it is removed from the pending list.
	TransmitEndGrace = 300 * time.Millisecond
	sendTimeout      = 10 * time.Millisecond
)

type txMessage struct {
	poison bool
	entry  models.PendingTx
}

// Transmitter owns the radio peripheral and serialises a pending-command
// list keyed by shocker ID. Callers interact only through SendCommand and
// ClearPending; the pending list itself is touched exclusively by run.
type Transmitter struct {
	radio RadioPeripheral
	log   *logger.SystemLogger

	cmdCh chan txMessage
	done  chan struct{}
}

// NewTransmitter constructs a transmitter bound to radio and immediately
// starts its worker goroutine.
func NewTransmitter(radio RadioPeripheral, log *logger.SystemLogger) *Transmitter {
	t := &Transmitter{
		radio: radio,
		log:   log,
		cmdCh: make(chan txMessage, QueueSize),
		done:  make(chan struct{}),
	}
	go t.run()
	return t
}

// SendCommand encodes the active and zero sequences for the given command
// and posts a PendingTx to the worker. overwrite controls whether this
// entry replaces an existing pending entry for the same shocker ID.
func (t *Transmitter) SendCommand(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16, overwrite bool) bool {
	entry := models.PendingTx{
		ShockerID: id,
		Until:     time.Now().Add(time.Duration(durationMS) * time.Millisecond),
		ActiveSeq: Encode(model, id, kind, intensity),
		ZeroSeq:   EncodeZero(model, id, kind),
		Overwrite: overwrite,
	}
	select {
	case t.cmdCh <- txMessage{entry: entry}:
		return true
	case <-time.After(sendTimeout):
		if t.log != nil {
			t.log.LogRFTransmitFailure(id, "enqueue timed out")
		}
		return false
	}
}

// ClearPending drains every not-yet-processed entry from the command
// channel. It does not touch entries the worker has already accepted into
// its pending list; a Stop rewrite relies on the subsequent overwrite=true
// enqueue to supersede those.
func (t *Transmitter) ClearPending() {
	for {
		select {
		case <-t.cmdCh:
		default:
			return
		}
	}
}

// Close posts a poison message and blocks, polling every 10ms, until the
// worker has discarded its pending list and exited.
func (t *Transmitter) Close() {
	select {
	case t.cmdCh <- txMessage{poison: true}:
	case <-time.After(sendTimeout):
	}
	for {
		select {
		case <-t.done:
			return
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *Transmitter) run() {
	defer close(t.done)
	pending := make(map[uint16]*models.PendingTx)

	for {
		if len(pending) == 0 {
			msg := <-t.cmdCh
			if msg.poison {
				return
			}
			mergeEntry(pending, msg.entry)
		}

	drain:
		for {
			select {
			case msg := <-t.cmdCh:
				if msg.poison {
					return
				}
				mergeEntry(pending, msg.entry)
			default:
				break drain
			}
		}

		now := time.Now()
		for id, entry := range pending {
			expired := now.After(entry.Until)
			empty := len(entry.ActiveSeq) == 0
			switch {
			case expired || empty:
				if !empty {
					if err := t.radio.Transmit(entry.ZeroSeq); err != nil && t.log != nil {
						t.log.LogRFTransmitFailure(id, err.Error())
					}
				}
				if now.After(entry.Until.Add(TransmitEndGrace)) {
					delete(pending, id)
				}
			default:
				if err := t.radio.Transmit(entry.ActiveSeq); err != nil && t.log != nil {
					t.log.LogRFTransmitFailure(id, err.Error())
				}
			}
		}
	}
}

// mergeEntry implements the replace-or-drop coordination primitive: a new
// entry replaces an existing one for the same shocker ID only when the new
// entry's Overwrite flag is set; otherwise it is silently discarded.
func mergeEntry(pending map[uint16]*models.PendingTx, entry models.PendingTx) {
	if existing, ok := pending[entry.ShockerID]; ok {
		if entry.Overwrite {
			*existing = entry
		}
		return
	}
	e := entry
	pending[entry.ShockerID] = &e
}
