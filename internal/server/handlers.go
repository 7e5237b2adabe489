package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/bracketorder/internal/roundfile"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
	"github.com/Sumatoshi-tech/bracketorder/pkg/ordertree"
)

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

type api struct {
	svc      *service.Service
	logger   *slog.Logger
	maxBody  int64
	validate bool
}

func (a *api) handleReconstruct(rw http.ResponseWriter, req *http.Request) {
	rounds, opts, ok := a.readRounds(rw, req)
	if !ok {
		return
	}

	result, err := a.svc.Reconstruct(req.Context(), rounds, opts)
	if err != nil {
		a.fail(rw, req, err)

		return
	}

	a.writeJSON(rw, req, http.StatusOK, result)
}

func (a *api) handlePairs(rw http.ResponseWriter, req *http.Request) {
	rounds, opts, ok := a.readRounds(rw, req)
	if !ok {
		return
	}

	result, err := a.svc.Reconstruct(req.Context(), rounds, opts)
	if err != nil {
		a.fail(rw, req, err)

		return
	}

	a.writeJSON(rw, req, http.StatusOK, result.Links)
}

func (a *api) handleCompare(rw http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	first, second := query.Get("a"), query.Get("b")
	if first == "" || second == "" {
		a.writeJSON(rw, req, http.StatusBadRequest, errorResponse{Error: "query parameters a and b are required"})

		return
	}

	rounds, opts, ok := a.readRounds(rw, req)
	if !ok {
		return
	}

	cmp, err := a.svc.Compare(req.Context(), rounds, first, second, opts)
	if err != nil {
		a.fail(rw, req, err)

		return
	}

	a.writeJSON(rw, req, http.StatusOK, cmp)
}

// readRounds decodes the request body. On failure the response is already
// written and ok is false.
func (a *api) readRounds(rw http.ResponseWriter, req *http.Request) ([]bracket.Round, service.Options, bool) {
	var opts service.Options

	if raw := req.URL.Query().Get("sort"); raw != "" {
		sortMatches, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeJSON(rw, req, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid sort value %q", raw)})

			return nil, opts, false
		}

		opts.SortMatches = sortMatches
	}

	if a.maxBody > 0 {
		req.Body = http.MaxBytesReader(rw, req.Body, a.maxBody)
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		a.fail(rw, req, fmt.Errorf("read body: %w", err))

		return nil, opts, false
	}

	rounds, err := roundfile.Decode(data, requestFormat(req, data), roundfile.Options{Validate: a.validate})
	if err != nil {
		a.fail(rw, req, err)

		return nil, opts, false
	}

	return rounds, opts, true
}

func requestFormat(req *http.Request, data []byte) roundfile.Format {
	if format := req.URL.Query().Get("format"); format != "" {
		return roundfile.Format(format)
	}

	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err == nil {
		switch {
		case mediaType == "application/json":
			return roundfile.FormatJSON
		case strings.Contains(mediaType, "yaml"):
			return roundfile.FormatYAML
		}
	}

	return roundfile.DetectFormat("", data)
}

// statusOf maps an error to the HTTP status reported to the client.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnknownEntrant):
		return http.StatusNotFound
	case errors.Is(err, roundfile.ErrSchema),
		errors.Is(err, bracket.ErrBrokenInvariant),
		errors.Is(err, bracket.ErrEmptyMatch),
		errors.Is(err, ordertree.ErrAlreadyPlaced):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ordertree.ErrStructuralCorruption):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (a *api) fail(rw http.ResponseWriter, req *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(req.Context(), "request failed", "path", req.URL.Path, "error", err)
	}

	a.writeJSON(rw, req, status, errorResponse{Error: err.Error()})
}

func (a *api) writeJSON(rw http.ResponseWriter, req *http.Request, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	err := json.NewEncoder(rw).Encode(value)
	if err != nil {
		a.logger.ErrorContext(req.Context(), "failed to encode JSON response", "error", err)
	}
}
