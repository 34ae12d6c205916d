package skills

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetInput struct {
	Name  string   `mapstructure:"name" json:"name" jsonschema:"description=Who to greet"`
	Times int      `mapstructure:"times" json:"times,omitempty"`
	Tags  []string `mapstructure:"tags" json:"tags,omitempty"`
}

type greetOutput struct {
	Greeting string   `mapstructure:"greeting"`
	Tags     []string `mapstructure:"tags"`
}

func greet(_ context.Context, in greetInput) (greetOutput, error) {
	if in.Name == "" {
		return greetOutput{}, errors.New("name is required")
	}
	g := ""
	for i := 0; i < max(in.Times, 1); i++ {
		g += "hi " + in.Name
	}
	return greetOutput{Greeting: g, Tags: in.Tags}, nil
}

func TestPayloadClone(t *testing.T) {
	original := Payload{"a": 1}
	clone := original.Clone()
	clone["b"] = 2

	assert.NotContains(t, original, "b")
	assert.Equal(t, 1, clone["a"])

	var nilPayload Payload
	assert.NotNil(t, nilPayload.Clone())
}

func TestResultConstructors(t *testing.T) {
	ok := Success("x", nil)
	assert.True(t, ok.Succeeded())
	assert.NotNil(t, ok.Output)
	assert.Empty(t, ok.Error)

	failed := Failure("x", errors.New("boom"))
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "boom", failed.Error)
	assert.Nil(t, failed.Output)

	assert.Equal(t, "unknown error", Failure("x", nil).Error)
}

func TestFuncAdapter(t *testing.T) {
	var s Skill = Func(func(_ context.Context, input Payload) (Payload, error) {
		return Payload{"echo": input["v"]}, nil
	})

	out, err := s.Execute(context.Background(), Payload{"v": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", out["echo"])
}

func TestTypedExecute(t *testing.T) {
	skill := NewTyped("greets people", greet)

	t.Run("decodes weakly typed input", func(t *testing.T) {
		out, err := skill.Execute(context.Background(), Payload{
			"name":  "ada",
			"times": "2",
			"tags":  []any{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "hi adahi ada", out["greeting"])
		assert.Equal(t, []string{"a", "b"}, out["tags"])
	})

	t.Run("propagates function errors", func(t *testing.T) {
		_, err := skill.Execute(context.Background(), Payload{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("rejects undecodable input", func(t *testing.T) {
		_, err := skill.Execute(context.Background(), Payload{"times": []any{1, 2}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid input")
	})
}

func TestTypedDescribe(t *testing.T) {
	skill := NewTyped("greets people", greet)

	assert.Equal(t, "greets people", skill.Description())

	schema := skill.InputSchema()
	require.NotNil(t, schema)
	prop, ok := schema.Properties.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Who to greet", prop.Description)
}
