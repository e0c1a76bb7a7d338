package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/session"
)

const (
	writeWait       = 10 * time.Second
	maxMessageBytes = 64 << 10
	outboxSize      = 64
)

// Message types exchanged on the session socket.
const (
	msgInput    = "input"
	msgReset    = "reset"
	msgMode     = "mode"
	msgCategory = "category"

	msgState  = "state"
	msgResult = "result"
	msgError  = "error"
)

type clientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Category string `json:"category,omitempty"`
}

type serverMessage struct {
	Type   string        `json:"type"`
	State  *stateView    `json:"state,omitempty"`
	Result *model.Record `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// stateView is the wire form of a session snapshot.
type stateView struct {
	Version        uint64         `json:"version"`
	State          session.State  `json:"state"`
	Mode           string         `json:"mode"`
	Category       model.Category `json:"category"`
	Target         string         `json:"target"`
	Input          string         `json:"input"`
	Mistakes       int            `json:"mistakes"`
	Remaining      int            `json:"remaining"`
	Author         string         `json:"author,omitempty"`
	QuoteLoading   bool           `json:"quoteLoading"`
	QuoteError     string         `json:"quoteError,omitempty"`
	WPM            int            `json:"wpm"`
	Accuracy       int            `json:"accuracy"`
	ElapsedSeconds float64        `json:"elapsedSeconds"`
}

func newStateView(snap session.Snapshot) *stateView {
	v := &stateView{
		Version:        snap.Version,
		State:          snap.State,
		Mode:           snap.Mode.ID(),
		Category:       snap.Mode.Category(),
		Target:         snap.Target,
		Input:          snap.Input,
		Mistakes:       snap.Mistakes,
		Remaining:      snap.Remaining,
		Author:         snap.Author,
		QuoteLoading:   snap.QuoteLoading,
		WPM:            snap.WPM,
		Accuracy:       snap.Accuracy,
		ElapsedSeconds: snap.ElapsedSeconds,
	}
	if snap.QuoteErr != nil {
		v.QuoteError = snap.QuoteErr.Error()
	}
	return v
}

// outbox queues messages for the connection writer. Sends after close are dropped.
type outbox struct {
	ch   chan serverMessage
	done chan struct{}
	once sync.Once
}

func newOutbox() *outbox {
	return &outbox{ch: make(chan serverMessage, outboxSize), done: make(chan struct{})}
}

func (o *outbox) send(msg serverMessage) {
	select {
	case o.ch <- msg:
	case <-o.done:
	}
}

func (o *outbox) close() {
	o.once.Do(func() { close(o.done) })
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	mode := s.session.Mode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := model.ParseMode(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(maxMessageBytes)
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Info("session connected", "mode", mode.ID())

	out := newOutbox()
	opts := s.session
	opts.Mode = mode
	opts.History = s.store
	opts.Logger = logger
	opts.Notify = func(ev session.Event) {
		out.send(serverMessage{Type: msgState, State: newStateView(ev.Snapshot)})
		if ev.Kind == session.EventFinished && ev.Snapshot.Result != nil {
			rec := ev.Snapshot.Result.ToRecord()
			out.send(serverMessage{Type: msgResult, Result: &rec})
		}
	}
	engine := session.New(opts)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeLoop(conn, out, logger)
	}()

	readLoop(conn, engine, out, logger)

	engine.Close()
	out.close()
	wg.Wait()
	if err := conn.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
	logger.Info("session disconnected")
}

// writeLoop drains out until it is closed or a write fails. On failure it
// closes out so senders stop blocking and closes conn to unblock the reader.
func writeLoop(conn *websocket.Conn, out *outbox, logger *slog.Logger) {
	defer out.close()
	for {
		select {
		case msg := <-out.ch:
			err := conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = conn.WriteJSON(msg)
			}
			if err != nil {
				logger.Debug("websocket write failed", "err", err)
				_ = conn.Close()
				return
			}
		case <-out.done:
			return
		}
	}
}

func readLoop(conn *websocket.Conn, engine *session.Engine, out *outbox, logger *slog.Logger) {
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		if err := dispatch(engine, msg); err != nil {
			out.send(serverMessage{Type: msgError, Error: err.Error()})
		}
	}
}

func dispatch(engine *session.Engine, msg clientMessage) error {
	switch msg.Type {
	case msgInput:
		engine.Input(msg.Text)
	case msgReset:
		engine.Reset()
	case msgMode:
		mode, err := model.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		engine.SetMode(mode)
	case msgCategory:
		category, err := model.ParseCategory(msg.Category)
		if err != nil {
			return err
		}
		engine.SetCategory(category)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
