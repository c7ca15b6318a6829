package model

import (
	"sync"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// StateManager tracks whether a learner is Fresh or Trained, together with
// the dimensions seen by the last Train. It is safe for concurrent readers.
type StateManager struct {
	mu sync.RWMutex

	trained   bool
	nFeatures int
	nSamples  int
	nClasses  int
}

// NewStateManager creates a StateManager in the Fresh state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsTrained returns whether Train has completed.
func (s *StateManager) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trained
}

// SetTrained marks the learner as Trained with the dimensions of the training
// set.
func (s *StateManager) SetTrained(nFeatures, nSamples, nClasses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
	s.nClasses = nClasses
}

// GetDimensions returns the feature, sample and class counts of the last Train.
func (s *StateManager) GetDimensions() (nFeatures, nSamples, nClasses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples, s.nClasses
}

// RequireTrained returns a NotTrainedError naming modelName and method if
// Train has not completed.
func (s *StateManager) RequireTrained(modelName, method string) error {
	if !s.IsTrained() {
		return errors.NewNotTrainedError(modelName, method)
	}
	return nil
}

// WithState runs fn with the state locked for reading.
func (s *StateManager) WithState(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// WithStateMut runs fn with the state locked for writing.
func (s *StateManager) WithStateMut(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// RequireTrainable checks the preconditions shared by every learner: a
// non-empty dataset with a non-empty global feature index set.
func RequireTrainable(op string, nSamples, nFeatures int) error {
	if nSamples == 0 {
		return errors.NewPreconditionError(op, "dataset is empty")
	}
	if nFeatures == 0 {
		return errors.NewPreconditionError(op, "feature index set is empty")
	}
	return nil
}
