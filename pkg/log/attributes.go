// Package log defines standard attribute keys for training and evaluation.
//
// The keys follow a hierarchical naming convention ("model.name",
// "data.samples") so that log records from different learners can be
// filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of learner.
	// Examples: "LogisticRegression", "OVAClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "classify", "evaluate", "cross_validate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of examples in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the size of the global feature index set.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct labels.
	ClassesKey = "data.classes"

	// PathKey is the dataset file being read.
	PathKey = "data.path"

	// FormatKey is the dataset file format.
	FormatKey = "data.format"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// StdDevKey records the standard deviation of fold accuracies.
	StdDevKey = "metrics.stddev"

	// IterationKey records the number of SGD passes.
	IterationKey = "training.iterations"

	// FoldKey records the cross-validation fold index.
	FoldKey = "training.fold"

	// SubproblemsKey records how many binary learners a reduction trained.
	SubproblemsKey = "training.subproblems"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the SGD step size.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records the L2 strength.
	RegularizationKey = "hyperparams.regularization"

	// MaxDepthKey records the decision tree depth limit.
	MaxDepthKey = "hyperparams.max_depth"

	// RandomSeedKey records the seed used for shuffling.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationTrain         = "train"
	OperationClassify      = "classify"
	OperationEvaluate      = "evaluate"
	OperationCrossValidate = "cross_validate"
	OperationLoad          = "load"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
)
