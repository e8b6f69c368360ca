package depend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type networkConfig struct {
	VPCID  Cell[string]
	Region string
}

type instanceConfig struct {
	Name     string
	Network  networkConfig
	Tags     map[string]Cell[string]
	Replicas []Cell[int]
	Parent   *networkConfig
}

func TestKeysFindsDirectReference(t *testing.T) {
	cfg := instanceConfig{
		Name: "web",
		Network: networkConfig{
			VPCID:  Reference[string]("vpc-main", "id"),
			Region: "us-east-1",
		},
	}
	keys := Keys(cfg)
	assert.Equal(t, []string{"vpc-main"}, keys)
}

func TestKeysIgnoresLiterals(t *testing.T) {
	cfg := instanceConfig{
		Network: networkConfig{VPCID: Literal("vpc-123")},
	}
	assert.Empty(t, Keys(cfg))
}

func TestKeysWalksMapsAndSlicesAndPointers(t *testing.T) {
	cfg := instanceConfig{
		Tags: map[string]Cell[string]{
			"owner": Reference[string]("team-resource", "email"),
		},
		Replicas: []Cell[int]{
			Literal(1),
			Reference[int]("counter", "value"),
		},
		Parent: &networkConfig{VPCID: Reference[string]("vpc-main", "id")},
	}
	keys := Keys(cfg)
	assert.ElementsMatch(t, []string{"team-resource", "counter", "vpc-main"}, keys)
}

func TestKeysDeduplicates(t *testing.T) {
	cfg := instanceConfig{
		Network: networkConfig{VPCID: Reference[string]("vpc-main", "id")},
		Replicas: []Cell[int]{
			Reference[int]("vpc-main", "subnet_count"),
		},
	}
	assert.Equal(t, []string{"vpc-main"}, Keys(cfg))
}

type handWritten struct {
	deps []string
}

func (h handWritten) Dependencies() []string { return h.deps }

func TestKeysPrefersHasDependencies(t *testing.T) {
	h := handWritten{deps: []string{"custom-dep"}}
	assert.Equal(t, []string{"custom-dep"}, Keys(h))
}
