package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fairdatause/qualify-api/internal/logger"
	"go.uber.org/zap"
)

type errorSlot struct {
	err   error
	stack []byte
}

type slotKey struct{}

// Errors is the last line of error handling. It recovers panics and renders
// errors a handler passed to Fail as 500 {success:false,message}. The stack is
// added as "error" only in development. Nothing is written when the handler
// already sent a response.
func Errors(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			slot := &errorSlot{}
			r = r.WithContext(context.WithValue(r.Context(), slotKey{}, slot))

			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					slot.err = panicError(p)
					slot.stack = debug.Stack()
				}
				if slot.err != nil {
					renderUnhandled(rec, r, slot, development)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// Fail hands err to the Errors middleware. Outside of it the 500 is written
// directly.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	slot, ok := r.Context().Value(slotKey{}).(*errorSlot)
	if !ok {
		renderUnhandled(newStatusRecorder(w), r, &errorSlot{err: err, stack: debug.Stack()}, false)
		return
	}
	slot.err = err
	slot.stack = debug.Stack()
}

func renderUnhandled(w *statusRecorder, r *http.Request, slot *errorSlot, development bool) {
	logger.LogError("UNHANDLED ERROR",
		zap.String("error_type", fmt.Sprintf("%T", slot.err)),
		zap.String("error_message", slot.err.Error()),
		zap.String("request_url", r.URL.String()),
		zap.String("method", r.Method),
	)
	if w.written {
		logger.LogWarn("response already sent, dropping error response", zap.String("request_url", r.URL.String()))
		return
	}

	body := errorBody{Message: "Internal server error: " + slot.err.Error()}
	if development {
		body.Error = slot.err.Error() + "\n" + string(slot.stack)
	}
	writeBody(w, http.StatusInternalServerError, body)
}

func panicError(p interface{}) error {
	switch v := p.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
