package gnn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StateDict returns named parameters of the model.
// Be careful: matrices are not copies, but references to model parameters.
func (model *Model) StateDict() map[string]*mat.Dense {
	sd := make(map[string]*mat.Dense)
	model.stack.stateDict(sd)
	model.regressor.StateDict("regressor", sd)
	return sd
}

// LoadStateDict copies parameters from sd into the model.
// Unknown keys, missing keys and shape mismatches are collected into one report:
// in strict mode it is returned as configuration error, otherwise it is logged and
// every matching parameter is still loaded.
func (model *Model) LoadStateDict(sd map[string]*mat.Dense, strict bool) error {
	own := model.StateDict()
	unexpected := make([]string, 0)
	mismatched := make([]string, 0)
	for _, name := range sortedKeys(sd) {
		param := sd[name]
		target, ok := own[name]
		if !ok {
			unexpected = append(unexpected, name)
			continue
		}
		tr, tc := target.Dims()
		if param == nil {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %dx%d, loaded nil", name, tr, tc))
			continue
		}
		pr, pc := param.Dims()
		if tr != pr || tc != pc {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %dx%d, loaded %dx%d", name, tr, tc, pr, pc))
			continue
		}
		target.Copy(param)
	}
	missing := make([]string, 0)
	for _, name := range sortedKeys(own) {
		if _, ok := sd[name]; !ok {
			missing = append(missing, name)
		}
	}

	report := make([]string, 0, 3)
	if len(unexpected) > 0 {
		report = append(report, "unexpected keys: "+strings.Join(unexpected, ", "))
	}
	if len(missing) > 0 {
		report = append(report, "missing keys: "+strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		report = append(report, "mismatched shapes: "+strings.Join(mismatched, "; "))
	}
	if len(report) == 0 {
		return nil
	}
	msg := "state dict does not match model exactly: " + strings.Join(report, " | ")
	if strict {
		return errors.Wrap(ErrConfiguration, msg)
	}
	model.logger.Warn(msg)
	return nil
}

func sortedKeys(sd map[string]*mat.Dense) []string {
	keys := make([]string, 0, len(sd))
	for name := range sd {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
