// Package tabclass is a small supervised-learning toolkit for labelled
// examples with sparse numeric features.
//
// It provides binary and multinomial logistic regression trained by
// stochastic gradient descent, a depth-limited decision tree, multinomial
// naive Bayes, and two reductions that turn any binary learner into a
// multiclass one: one-versus-all and all-versus-all.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/tabclass/core/data"
//	    "github.com/YuminosukeSato/tabclass/core/model"
//	    "github.com/YuminosukeSato/tabclass/sklearn/linear_model"
//	    "github.com/YuminosukeSato/tabclass/sklearn/multiclass"
//	)
//
//	func main() {
//	    ds, err := data.Load("wines.csv", data.FormatCSV)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    lr := model.Factory(func() model.Classifier {
//	        return linear_model.NewLogisticRegression(linear_model.WithLRIterations(50))
//	    })
//	    ova := multiclass.NewOVAClassifier(lr)
//	    if err := ova.Train(ds); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    label, err := ova.Classify(ds.Data()[0])
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("predicted:", label)
//	}
//
// # Packages
//
//   - core/data: Example, DataSet, FeatureMap, readers, splits and folds
//   - core/model: the Classifier capability, Factory and training state
//   - core/parallel: bounded fan-out of independent jobs
//   - sklearn/linear_model: LogisticRegression and MultinomialLogisticRegression
//   - sklearn/tree: DecisionTreeClassifier
//   - sklearn/naive_bayes: MultinomialNB
//   - sklearn/multiclass: OVAClassifier and AVAClassifier
//   - sklearn/factory: learners built from a Config record
//   - metrics: accuracy, confusion matrix, AUC and log loss
//   - model_selection: hold-out evaluation, cross validation and sweeps
//   - pkg/errors, pkg/log: structured errors and pluggable logging
//
// The tabclass command (cmd/tabclass) cross validates learners, runs YAML
// experiment plans and draws learning curves.
package tabclass
