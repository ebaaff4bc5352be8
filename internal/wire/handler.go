package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/arrayfield"
	"github.com/bh-premnath-git/bhui-sub000/internal/catalog"
	"github.com/bh-premnath-git/bhui-sub000/internal/formstate"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
	"github.com/bh-premnath-git/bhui-sub000/internal/session"
)

// Handler manages WebSocket connections for live forms.
type Handler struct {
	schemas  *catalog.Registry
	sessions *session.Manager
	options  render.Options
}

// NewHandler creates a WebSocket handler. options are the render defaults
// for new forms.
func NewHandler(schemas *catalog.Registry, sessions *session.Manager, options render.Options) *Handler {
	return &Handler{
		schemas:  schemas,
		sessions: sessions,
		options:  options,
	}
}

// Conn is the per-connection protocol state.
type Conn struct {
	sess *session.Session
}

// Session returns the session bound by "open", or nil.
func (c *Conn) Session() *session.Session {
	return c.sess
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Str("component", "wire").Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	state := &Conn{}
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug().Str("component", "wire").Int("status", int(websocket.CloseStatus(err))).Msg("connection closed")
			}
			return
		}
		for _, out := range h.Handle(state, msg) {
			if err := wsjson.Write(ctx, conn, out); err != nil {
				log.Warn().Str("component", "wire").Err(err).Msg("write error")
				return
			}
		}
	}
}

// Handle processes one client message and returns the replies.
func (h *Handler) Handle(c *Conn, msg ClientMessage) []ServerMessage {
	switch msg.Type {
	case TypePing:
		return []ServerMessage{{Type: TypePong, RequestID: msg.ID}}
	case TypeOpen:
		return h.handleOpen(c, msg)
	case TypeSet, TypeAddRow, TypeRemoveRow, TypeUpdateRow, TypeOptions, TypeValidate, TypeSubmit:
	default:
		return errorReply(msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}

	if c.sess == nil {
		return errorReply(msg.ID, "no_session", "open a form first")
	}
	form := c.sess.Form()

	switch msg.Type {
	case TypeValidate:
		return []ServerMessage{{Type: TypeValidation, RequestID: msg.ID, Data: form.Validate()}}
	case TypeSubmit:
		values, res := form.Submit()
		if !res.Valid {
			return []ServerMessage{{Type: TypeValidation, RequestID: msg.ID, Data: res}}
		}
		return []ServerMessage{{Type: TypeSubmitted, RequestID: msg.ID, Data: SubmittedData{Values: values}}}
	case TypeSet:
		var data SetData
		if err := decode(msg, &data); err != nil {
			return errorReply(msg.ID, "invalid_data", "invalid set data")
		}
		if err := form.Set(data.Path, data.Value); err != nil {
			return formError(msg.ID, err)
		}
	case TypeOptions:
		var data OptionsData
		if err := decode(msg, &data); err != nil {
			return errorReply(msg.ID, "invalid_data", "invalid options data")
		}
		opts, err := render.DecodeOptions(data.Options, h.options)
		if err != nil {
			return errorReply(msg.ID, "invalid_options", err.Error())
		}
		form.SetOptions(opts)
	default:
		var data RowData
		if err := decode(msg, &data); err != nil {
			return errorReply(msg.ID, "invalid_data", "invalid row data")
		}
		if err := h.rowOp(form, msg.Type, data); err != nil {
			return formError(msg.ID, err)
		}
	}
	return []ServerMessage{stateReply(msg.ID, form)}
}

func (h *Handler) rowOp(form *formstate.Form, typ string, data RowData) error {
	switch typ {
	case TypeAddRow:
		_, err := form.AddRow(data.Path)
		return err
	case TypeRemoveRow:
		return form.RemoveRow(data.Path, data.Index)
	default:
		return form.UpdateRow(data.Path, data.Index, data.Value)
	}
}

func (h *Handler) handleOpen(c *Conn, msg ClientMessage) []ServerMessage {
	var data OpenData
	if err := decode(msg, &data); err != nil {
		return errorReply(msg.ID, "invalid_data", "invalid open data")
	}

	if data.SessionID != "" {
		sess := h.sessions.Get(data.SessionID)
		if sess == nil {
			return errorReply(msg.ID, "session_not_found", "session expired or unknown: "+data.SessionID)
		}
		c.sess = sess
		return h.opened(msg.ID, sess)
	}

	entry, err := h.schemas.Get(data.Schema)
	if err != nil {
		return errorReply(msg.ID, "schema_not_found", err.Error())
	}
	opts, err := render.DecodeOptions(data.Options, h.options)
	if err != nil {
		return errorReply(msg.ID, "invalid_options", err.Error())
	}
	form, err := formstate.New(formstate.Config{
		Schema:   entry.Root(),
		Initial:  data.Values,
		Options:  opts,
		Resolver: entry.Resolver,
		Checker:  entry.Checker,
	})
	if err != nil {
		return errorReply(msg.ID, "open_failed", err.Error())
	}
	sess := h.sessions.Create(entry.Name(), form)
	log.Debug().Str("component", "wire").Str("session", sess.ID).Str("schema", sess.Schema).Msg("form opened")
	c.sess = sess
	return h.opened(msg.ID, sess)
}

func (h *Handler) opened(id string, sess *session.Session) []ServerMessage {
	return []ServerMessage{
		{Type: TypeSession, RequestID: id, Data: SessionData{SessionID: sess.ID, Schema: sess.Schema}},
		stateReply(id, sess.Form()),
	}
}

func stateReply(id string, form *formstate.Form) ServerMessage {
	return ServerMessage{Type: TypeState, RequestID: id, Data: form.State()}
}

func decode(msg ClientMessage, v any) error {
	if len(msg.Data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(msg.Data, v)
}

func formError(id string, err error) []ServerMessage {
	switch {
	case errors.Is(err, formstate.ErrUnknownField):
		return errorReply(id, "unknown_field", err.Error())
	case errors.Is(err, formstate.ErrNotArray):
		return errorReply(id, "not_array", err.Error())
	case errors.Is(err, arrayfield.ErrIndexOutOfRange):
		return errorReply(id, "index_out_of_range", err.Error())
	case errors.Is(err, arrayfield.ErrRemoveRequired):
		return errorReply(id, "remove_required", err.Error())
	default:
		return errorReply(id, "form_error", err.Error())
	}
}

func errorReply(id, code, message string) []ServerMessage {
	return []ServerMessage{{
		Type:      TypeError,
		RequestID: id,
		Data:      ErrorData{Code: code, Message: message},
	}}
}
