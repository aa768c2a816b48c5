package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/utils"
)

// NoBody is the request type of endpoints that read nothing from the body.
type NoBody struct{}

// Endpoint describes one request-validate-call-respond route.
type Endpoint[Req any, Resp any] struct {
	// Call runs the operation on a decoded and validated request.
	Call func(w http.ResponseWriter, r *http.Request, req *Req) (Resp, error)

	// Status is the success status code; 200 when zero.
	Status int

	// Write renders a successful result. The default writes resp as a bare
	// JSON body.
	Write func(w http.ResponseWriter, status int, resp Resp)

	// ExposeDetails adds the underlying cause to 5xx responses.
	ExposeDetails bool
}

// Handle builds the handler for e. Bodies are decoded and validated unless
// Req is NoBody.
func Handle[Req any, Resp any](e Endpoint[Req, Resp]) http.HandlerFunc {
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}
	write := e.Write
	if write == nil {
		write = func(w http.ResponseWriter, status int, resp Resp) {
			utils.SendJSON(w, status, resp)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if _, empty := any(req).(*NoBody); !empty {
			if err := utils.DecodeAndValidate(r, req); err != nil {
				respondError(w, r, err, false)
				return
			}
		}

		resp, err := e.Call(w, r, req)
		if err != nil {
			respondError(w, r, err, e.ExposeDetails)
			return
		}

		if status == http.StatusNoContent {
			utils.NoContent(w)
			return
		}
		write(w, status, resp)
	}
}

// Envelope writes resp inside the standard {success, data} response.
func Envelope[Resp any](w http.ResponseWriter, status int, resp Resp) {
	utils.JSON(w, status, resp)
}

func respondError(w http.ResponseWriter, r *http.Request, err error, expose bool) {
	appErr := utils.ParseError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")

		if expose {
			detailed := *appErr
			detailed.Details = map[string]any{"cause": err.Error()}
			appErr = &detailed
		}
	}

	utils.ErrorFromAppError(w, appErr)
}
