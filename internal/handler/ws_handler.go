package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/edulane/quizdesk-backend/internal/middleware"
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/service"
	"github.com/edulane/quizdesk-backend/internal/session"
	ws "github.com/edulane/quizdesk-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler hosts one live attempt session per WebSocket connection. The
// session owns the countdown and the debounced autosave; this handler
// translates client actions in and session events out.
type WSHandler struct {
	attemptService *service.AttemptService
	clock          session.Clock
	debounce       time.Duration
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, clock session.Clock, debounce time.Duration, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		clock:          clock,
		debounce:       debounce,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/quizzes/:quiz_id/stream
// Upgrades to WebSocket and runs the interactive attempt session.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(rawConn)
	defer conn.Close()

	studentID := claims.UserID
	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("quiz_id", quizID.String()).
		Logger()

	sess := session.New(h.attemptService, h.clock, wsLog, session.Hooks{
		OnTick: func(remaining int) {
			conn.WriteTyped(ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: remaining,
				LowTime:          remaining <= int(session.LowTimeThreshold.Seconds()),
			})
		},
		OnSaveStatus: func(questionID uuid.UUID, status session.SaveStatus) {
			conn.WriteTyped(ws.SaveStatusResponse{
				Event:      ws.EventSaveStatus,
				QuestionID: questionID.String(),
				Status:     string(status),
			})
		},
		OnSubmitted: func(attempt *model.Attempt) {
			conn.WriteTyped(ws.SubmittedResponse{
				Event:      ws.EventSubmitted,
				Status:     string(attempt.Status),
				Score:      attempt.Score,
				Percentage: attempt.Percentage,
				Passed:     attempt.Passed,
			})
		},
		OnError: func(err error) {
			conn.WriteError(err.Error())
		},
	}, h.debounce)
	defer sess.Close()

	// The session context must outlive individual reads: debounce-fired
	// saves and the auto-submit run on it after this request returns.
	if err := sess.Start(c.Request.Context(), quizID, studentID); err != nil {
		wsLog.Warn().Err(err).Msg("Session start failed")
		conn.WriteError(startErrorMessage(err))
		return
	}

	h.sendState(conn, sess)
	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, sess, &msg)
		case ws.ActionNavigate:
			if msg.Index == nil {
				conn.WriteError("index is required")
				continue
			}
			index := sess.JumpTo(*msg.Index)
			conn.WriteTyped(ws.NavigateResponse{Event: ws.EventNavigate, Index: index})
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sess, c)
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// sendState sends the initial session snapshot: questions in the
// student's order with correct answers stripped, their answers, and the
// remaining time.
func (h *WSHandler) sendState(conn *ws.Conn, sess *session.Session) {
	attempt := sess.Attempt()
	if attempt == nil {
		return
	}

	ordered := sess.Questions()
	questions := make([]model.QuestionForStudent, 0, len(ordered))
	for _, q := range ordered {
		sq := model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Points:   q.Points,
			OrderNum: q.OrderNum,
		}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, model.OptionForStudent{ID: o.ID, Text: o.Text})
		}
		questions = append(questions, sq)
	}

	conn.WriteTyped(ws.StateResponse{
		Event:            ws.EventState,
		AttemptID:        attempt.ID,
		Questions:        questions,
		Answers:          sess.Answers(),
		RemainingSeconds: sess.RemainingSeconds(),
	})
}

func (h *WSHandler) handleAnswer(conn *ws.Conn, sess *session.Session, msg *ws.RequestPayload) {
	if msg.QuestionID == "" || msg.Value == nil {
		conn.WriteError("question_id and value are required")
		return
	}
	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		conn.WriteError("invalid question_id format")
		return
	}

	quiz := sess.Quiz()
	if quiz == nil {
		conn.WriteError("session not ready")
		return
	}
	question := quiz.QuestionByID(questionID)
	if question == nil {
		conn.WriteError("unknown question")
		return
	}

	switch question.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		if msg.Value.SelectedOptionID == nil {
			conn.WriteError("selected_option_id is required")
			return
		}
		err = sess.SelectOption(questionID, *msg.Value.SelectedOptionID)
	case model.QuestionTypeMultipleSelect:
		err = sess.SetMultiSelect(questionID, msg.Value.SelectedOptionIDs)
	default:
		err = sess.SetText(questionID, msg.Value.Text)
	}
	if err != nil {
		conn.WriteError(err.Error())
	}
}

func (h *WSHandler) handleSubmit(conn *ws.Conn, wsLog zerolog.Logger, sess *session.Session, c *gin.Context) {
	_, err := sess.Submit(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSubmitInFlight):
			conn.WriteError("submission already in progress")
		case errors.Is(err, session.ErrAlreadySubmitted):
			conn.WriteError("attempt already submitted")
		default:
			wsLog.Error().Err(err).Msg("Submit failed")
			conn.WriteError("submission failed, please retry")
		}
		return
	}
	// The OnSubmitted hook has already pushed the result event.
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrQuizNotAvailable):
		return "quiz is not available"
	case errors.Is(err, service.ErrAttemptAlreadyCompleted):
		return "answers were already submitted for this quiz"
	case errors.Is(err, service.ErrNotFound):
		return "quiz not found"
	default:
		return "failed to start attempt"
	}
}
