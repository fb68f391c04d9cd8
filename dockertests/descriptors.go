package dockertests

import (
	"github.com/folio-org/gateway-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	PrimaryModuleID   = "sample-module-1"
	SecondaryModuleID = "mod-users-1"

	primaryModuleImage   = "okapi-test-module"
	secondaryModuleImage = "folioci/mod-users:5.0.0-SNAPSHOT"
)

// PrimaryModule is a module built on the gateway's own test image. Its launch descriptor
// customizes the container: the image is not pulled, the command gets an extra argument, and
// the daemon is told how to bind the module's port ("%p" is replaced by the gateway).
func PrimaryModule() servicedef.ModuleDescriptor {
	pull := false
	return servicedef.ModuleDescriptor{
		ID:   PrimaryModuleID,
		Name: "sample module",
		Provides: []servicedef.InterfaceDescriptor{
			{
				ID:      "sample",
				Version: "1.0.0",
				Handlers: []servicedef.RoutingEntry{
					{Methods: []string{"GET", "POST"}, PathPattern: "/testb"},
				},
			},
		},
		LaunchDescriptor: &servicedef.LaunchDescriptor{
			DockerImage: primaryModuleImage,
			DockerPull:  &pull,
			DockerCMD:   []string{"-Dfoo=bar"},
			DockerArgs: map[string]ldvalue.Value{
				"StopTimeout": ldvalue.Int(12),
				"HostConfig": ldvalue.ObjectBuild().
					Set("PortBindings", ldvalue.ObjectBuild().
						Set("8080/tcp", ldvalue.ArrayOf(
							ldvalue.ObjectBuild().Set("HostPort", ldvalue.String("%p")).Build(),
						)).
						Build()).
					Build(),
			},
		},
	}
}

// SecondaryModule is a module with a stock image and no container customization.
func SecondaryModule() servicedef.ModuleDescriptor {
	return servicedef.ModuleDescriptor{
		ID:   SecondaryModuleID,
		Name: "users",
		Provides: []servicedef.InterfaceDescriptor{
			{
				ID:      "users",
				Version: "1.0.0",
				Handlers: []servicedef.RoutingEntry{
					{Methods: []string{"GET", "POST"}, PathPattern: "/test"},
				},
			},
		},
		LaunchDescriptor: &servicedef.LaunchDescriptor{
			DockerImage: secondaryModuleImage,
		},
	}
}
