package servicedef

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

const (
	ProxyModulesPath     = "/_/proxy/modules"
	DiscoveryModulesPath = "/_/discovery/modules"
)

// ModuleDescriptor is the gateway's declaration of a module: what interfaces it provides and
// how the gateway can launch it.
type ModuleDescriptor struct {
	ID               string                `json:"id"`
	Name             string                `json:"name,omitempty"`
	Provides         []InterfaceDescriptor `json:"provides,omitempty"`
	LaunchDescriptor *LaunchDescriptor     `json:"launchDescriptor,omitempty"`
}

type InterfaceDescriptor struct {
	ID       string         `json:"id"`
	Version  string         `json:"version"`
	Handlers []RoutingEntry `json:"handlers,omitempty"`
}

type RoutingEntry struct {
	Methods     []string `json:"methods"`
	PathPattern string   `json:"pathPattern"`
}

// LaunchDescriptor tells the gateway how to start a module in a container.
//
// DockerArgs is passed through the gateway to the container daemon without interpretation.
type LaunchDescriptor struct {
	DockerImage string                   `json:"dockerImage"`
	DockerPull  *bool                    `json:"dockerPull,omitempty"`
	DockerCMD   []string                 `json:"dockerCMD,omitempty"`
	DockerArgs  map[string]ldvalue.Value `json:"dockerArgs,omitempty"`
}

// DeploymentDescriptor binds a registered module to a node. InstID and URL are assigned by
// the gateway and are only present in responses.
type DeploymentDescriptor struct {
	SrvcID string `json:"srvcId"`
	NodeID string `json:"nodeId"`
	InstID string `json:"instId,omitempty"`
	URL    string `json:"url,omitempty"`
}
