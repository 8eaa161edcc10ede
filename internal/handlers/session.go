package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"cash-register-client/internal/batch"
	"cash-register-client/internal/calculator"
	"cash-register-client/internal/configsync"
	"cash-register-client/internal/health"
	"cash-register-client/internal/model"
	"cash-register-client/internal/state"
)

// maxUploadMemory bounds the multipart form kept in memory; larger parts
// spill to temporary files.
const maxUploadMemory = 10 << 20

// Session exposes one client session (its store and controllers) over the
// local HTTP surface.
type Session struct {
	Store      *state.Store
	Calculator *calculator.Controller
	Batch      *batch.Controller
	Config     *configsync.Synchronizer
	Monitor    *health.Monitor
}

type stateResponse struct {
	state.Snapshot
	Phase         calculator.Phase `json:"phase"`
	RemoteHealthy bool             `json:"remoteHealthy"`
}

type amountsRequest struct {
	AmountOwed string `json:"amountOwed"`
	AmountPaid string `json:"amountPaid"`
}

type configResponse struct {
	Draft          model.Config      `json:"draft"`
	ExtendedFields bool              `json:"extendedFields"`
	PushPolicy     configsync.Policy `json:"pushPolicy"`
	Options        configOptions     `json:"options"`
}

type configOptions struct {
	Divisors     []int    `json:"divisors"`
	Countries    []string `json:"countries"`
	SpecialCases []string `json:"specialCases"`
}

type configEdit struct {
	RandomDivisor *int    `json:"randomDivisor"`
	Country       *string `json:"country"`
	SpecialCase   *string `json:"specialCase"`
}

// State handles GET /state.
func (s *Session) State(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.snapshot())
}

// SetAmounts handles PUT /amounts.
func (s *Session) SetAmounts(w http.ResponseWriter, r *http.Request) {
	var req amountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.Calculator.SetAmounts(req.AmountOwed, req.AmountPaid)
	WriteJSON(w, http.StatusOK, s.snapshot())
}

// Calculate handles POST /calculate. The response body is always the state
// after the attempt; the status code carries the outcome.
func (s *Session) Calculate(w http.ResponseWriter, r *http.Request) {
	err := s.Calculator.Submit(context.WithoutCancel(r.Context()))
	WriteJSON(w, StatusFor(err), s.snapshot())
}

// Clear handles POST /clear.
func (s *Session) Clear(w http.ResponseWriter, r *http.Request) {
	s.Calculator.Clear()
	WriteJSON(w, http.StatusOK, s.snapshot())
}

// Upload handles POST /upload with a multipart "file" field.
func (s *Session) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	sel := batch.SelectionFromReader(header.Filename, header.Header.Get("Content-Type"), file)
	err = s.Batch.Upload(context.WithoutCancel(r.Context()), sel)
	WriteJSON(w, StatusFor(err), s.snapshot())
}

// ClearResults handles POST /results/clear.
func (s *Session) ClearResults(w http.ResponseWriter, r *http.Request) {
	s.Batch.ClearResults()
	WriteJSON(w, http.StatusOK, s.snapshot())
}

// GetConfig handles GET /config.
func (s *Session) GetConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.configView())
}

// EditConfig handles PUT /config. Only the fields present are applied; the
// first rejected field stops the edit.
func (s *Session) EditConfig(w http.ResponseWriter, r *http.Request) {
	var req configEdit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.applyEdit(req); err != nil {
		WriteError(w, StatusFor(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, s.configView())
}

func (s *Session) applyEdit(req configEdit) error {
	if req.RandomDivisor != nil {
		if err := s.Config.SetDivisor(*req.RandomDivisor); err != nil {
			return err
		}
	}
	if req.Country != nil {
		if err := s.Config.SetCountry(*req.Country); err != nil {
			return err
		}
	}
	if req.SpecialCase != nil {
		if err := s.Config.SetSpecialCase(*req.SpecialCase); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) snapshot() stateResponse {
	resp := stateResponse{
		Snapshot: s.Store.Snapshot(),
		Phase:    s.Calculator.Phase.Get(),
	}
	if s.Monitor != nil {
		resp.RemoteHealthy = s.Monitor.Healthy()
	}
	return resp
}

func (s *Session) configView() configResponse {
	return configResponse{
		Draft:          s.Config.Draft(),
		ExtendedFields: s.Config.ExtendedFields(),
		PushPolicy:     s.Config.Policy(),
		Options: configOptions{
			Divisors:     model.DivisorOptions,
			Countries:    model.CountryOptions,
			SpecialCases: model.SpecialCaseOptions,
		},
	}
}
