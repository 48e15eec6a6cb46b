package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cuemby/burrow/pkg/client"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a configuration file",
	Long: `Apply Burrow resources from a YAML file. A file may hold several
documents separated by "---".

Examples:
  # Apply a deployment assignment
  burrow apply -f elser.yaml

  # Register a node by hand
  burrow apply -f node.yaml --token <worker-join-token>`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	applyCmd.Flags().String("token", "", "Join token, required for Node resources")
	addManagerFlag(applyCmd)
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// Resource represents a generic Burrow resource
type Resource struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       yaml.Node        `yaml:"spec"`
}

type ResourceMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// AssignmentSpec is the spec of an Assignment resource
type AssignmentSpec struct {
	types.TaskParams `yaml:",inline"`
	State            types.AssignmentState        `yaml:"state,omitempty"`
	Reason           string                       `yaml:"reason,omitempty"`
	StartTime        time.Time                    `yaml:"startTime,omitempty"`
	RoutingTable     map[string]types.RoutingInfo `yaml:"routingTable,omitempty"`
}

// NodeSpec is the spec of a Node resource
type NodeSpec struct {
	Role    types.NodeRole `yaml:"role,omitempty"`
	Address string         `yaml:"address"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	token, _ := cmd.Flags().GetString("token")

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	resources, err := parseResources(data)
	if err != nil {
		return err
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, resource := range resources {
		if err := applyResource(c, resource, token); err != nil {
			return err
		}
	}
	return nil
}

// parseResources decodes every YAML document in data
func parseResources(data []byte) ([]*Resource, error) {
	var resources []*Resource
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var resource Resource
		err := decoder.Decode(&resource)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if resource.Kind == "" {
			continue
		}
		if resource.Metadata.Name == "" {
			return nil, fmt.Errorf("%s resource has no metadata.name", resource.Kind)
		}
		resources = append(resources, &resource)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources found")
	}
	return resources, nil
}

func applyResource(c *client.Client, resource *Resource, token string) error {
	switch resource.Kind {
	case "Assignment":
		assignment, err := resource.assignment()
		if err != nil {
			return err
		}
		applied, err := c.PutAssignment(assignment)
		if err != nil {
			return fmt.Errorf("failed to apply assignment %s: %w", assignment.ModelID(), err)
		}
		fmt.Printf("✓ Assignment applied: %s (state=%s, routes=%d)\n",
			applied.ModelID(), applied.State, len(applied.RoutingTable))
		return nil

	case "Node":
		node, err := resource.node()
		if err != nil {
			return err
		}
		registered, err := c.RegisterNode(node, token)
		if err != nil {
			return fmt.Errorf("failed to register node %s: %w", node.ID, err)
		}
		fmt.Printf("✓ Node registered: %s (%s)\n", registered.ID, registered.Address)
		return nil

	default:
		return fmt.Errorf("unsupported resource kind: %s", resource.Kind)
	}
}

// assignment builds an assignment; the model id defaults to metadata.name
func (r *Resource) assignment() (*types.Assignment, error) {
	var spec AssignmentSpec
	if err := r.Spec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("invalid assignment spec %s: %w", r.Metadata.Name, err)
	}
	if spec.ModelID == "" {
		spec.ModelID = r.Metadata.Name
	}
	return &types.Assignment{
		TaskParams:   spec.TaskParams,
		State:        spec.State,
		Reason:       spec.Reason,
		StartTime:    spec.StartTime,
		RoutingTable: spec.RoutingTable,
	}, nil
}

// node builds a node; the node id is metadata.name
func (r *Resource) node() (*types.Node, error) {
	var spec NodeSpec
	if err := r.Spec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("invalid node spec %s: %w", r.Metadata.Name, err)
	}
	if spec.Address == "" {
		return nil, fmt.Errorf("node %s has no address", r.Metadata.Name)
	}
	role := spec.Role
	if role == "" {
		role = types.NodeRoleWorker
	}
	return &types.Node{
		ID:      r.Metadata.Name,
		Name:    r.Metadata.Name,
		Role:    role,
		Address: spec.Address,
		Labels:  r.Metadata.Labels,
	}, nil
}
