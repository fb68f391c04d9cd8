package dockertests

// DoModuleLifecycleTests registers modules with the gateway and binds them to a node. If the
// environment cannot run containers, the gateway must refuse the binding, and nothing more is
// attempted.
func DoModuleLifecycleTests(t *T) {
	plan := SelectPlan(t.Capability())
	t.Debug("Container capability: %s", t.Capability())
	t.Run(plan.Name, plan.Run)
}
