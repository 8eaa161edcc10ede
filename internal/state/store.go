package state

import (
	"slices"
	"sync"

	"cash-register-client/internal/model"
)

// Store is the calculation state shared by the controllers and read by the
// display layer. Create one per session with New and pass it explicitly.
type Store struct {
	AmountOwedText *Cell[string]
	AmountPaidText *Cell[string]
	Result         *Cell[*model.ChangeResponse]
	BatchResults   *Cell[[]model.ChangeResponse]
	Loading        *Cell[bool]
	Error          *Cell[string]

	mu       sync.Mutex
	inFlight int
}

func New() *Store {
	return &Store{
		AmountOwedText: NewCell(""),
		AmountPaidText: NewCell(""),
		Result:         NewCell[*model.ChangeResponse](nil),
		BatchResults:   NewCell([]model.ChangeResponse{}),
		Loading:        NewCell(false),
		Error:          NewCell(""),
	}
}

// BeginLoading marks one more request in flight. Loading turns true on the
// first and stays true until the matching EndLoading of the last, so
// controllers sharing the flag do not clear it under each other.
func (s *Store) BeginLoading() {
	s.mu.Lock()
	s.inFlight++
	first := s.inFlight == 1
	s.mu.Unlock()

	if first {
		s.Loading.Set(true)
	}
}

func (s *Store) EndLoading() {
	s.mu.Lock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	last := s.inFlight == 0
	s.mu.Unlock()

	if last {
		s.Loading.Set(false)
	}
}

// ClearCalculation resets the single-calculation cells.
func (s *Store) ClearCalculation() {
	s.AmountOwedText.Reset()
	s.AmountPaidText.Reset()
	s.Result.Reset()
	s.Error.Reset()
}

// ClearBatch empties the batch results and the error.
func (s *Store) ClearBatch() {
	s.BatchResults.Set([]model.ChangeResponse{})
	s.Error.Reset()
}

// Snapshot is a point-in-time copy of every cell.
type Snapshot struct {
	AmountOwed   string                 `json:"amountOwed"`
	AmountPaid   string                 `json:"amountPaid"`
	Result       *model.ChangeResponse  `json:"result"`
	BatchResults []model.ChangeResponse `json:"batchResults"`
	Loading      bool                   `json:"loading"`
	Error        string                 `json:"error,omitempty"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		AmountOwed:   s.AmountOwedText.Get(),
		AmountPaid:   s.AmountPaidText.Get(),
		Result:       s.Result.Get(),
		BatchResults: slices.Clone(s.BatchResults.Get()),
		Loading:      s.Loading.Get(),
		Error:        s.Error.Get(),
	}
}
