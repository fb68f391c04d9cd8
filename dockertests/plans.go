package dockertests

import (
	"github.com/folio-org/gateway-contract-tests/probe"
	"github.com/folio-org/gateway-contract-tests/servicedef"
)

const (
	PlanContainersAvailable   = "docker available"
	PlanContainersUnavailable = "docker unavailable"
)

// Step is one gateway exchange in a plan. A step that fails exits the test, so the remaining
// steps of the plan do not run.
type Step struct {
	Name   string
	Action func(t *T)
}

// Plan is a fixed sequence of steps. Steps run one at a time, in order.
type Plan struct {
	Name  string
	Steps []Step
}

func (p Plan) Run(t *T) {
	for i, s := range p.Steps {
		t.Debug("Step %d/%d: %s", i+1, len(p.Steps), s.Name)
		s.Action(t)
	}
}

// SelectPlan picks the scenario that matches the container capability of the environment.
func SelectPlan(capability probe.Result) Plan {
	if capability.Available {
		return containersAvailablePlan()
	}
	return containersUnavailablePlan()
}

func containersAvailablePlan() Plan {
	return Plan{
		Name: PlanContainersAvailable,
		Steps: []Step{
			{Name: "register primary module", Action: registerModuleStep(PrimaryModule)},
			{Name: "deploy primary module", Action: deployModuleStep(PrimaryModuleID)},
			{Name: "register secondary module", Action: registerModuleStep(SecondaryModule)},
			{Name: "deploy secondary module", Action: deployModuleStep(SecondaryModuleID)},
		},
	}
}

func containersUnavailablePlan() Plan {
	return Plan{
		Name: PlanContainersUnavailable,
		Steps: []Step{
			{Name: "register primary module", Action: registerModuleStep(PrimaryModule)},
			{Name: "deploy primary module is rejected", Action: func(t *T) {
				t.RequireDeploymentRejected(PrimaryModuleID)
			}},
		},
	}
}

func registerModuleStep(descriptor func() servicedef.ModuleDescriptor) func(*T) {
	return func(t *T) {
		location := t.RegisterModule(descriptor())
		t.Debug("Module created at %s", location)
	}
}

func deployModuleStep(srvcID string) func(*T) {
	return func(t *T) {
		location := t.DeployModule(srvcID)
		t.Debug("Deployment created at %s", location)
	}
}
