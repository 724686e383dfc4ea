package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "status"}} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestMigrateDown_RejectsInvalidSteps(t *testing.T) {
	for _, steps := range []string{"zero", "0", "-2"} {
		root := NewRootCommand()
		root.SetArgs([]string{"migrate", "down", steps})

		err := root.Execute()

		require.Error(t, err, steps)
		assert.Contains(t, err.Error(), "invalid step count")
	}
}

func TestServe_RejectsArguments(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"serve", "extra"})

	assert.Error(t, root.Execute())
}
