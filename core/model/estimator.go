package model

// Factory returns a fresh, untrained classifier on every call.
type Factory func() Classifier

// New calls the factory.
func (f Factory) New() Classifier {
	return f()
}

// IsMulticlass reports whether the classifiers f mints model K classes
// directly. It builds one throwaway instance.
func (f Factory) IsMulticlass() bool {
	_, ok := f().(MulticlassLearner)
	return ok
}
