package export

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/dynamo"
)

func testSnapshots() []dynamo.Snapshot {
	snaps := make([]dynamo.Snapshot, 100)
	dir := 1
	for i := range snaps {
		if i == 60 {
			dir = -1
		}
		snaps[i] = dynamo.Snapshot{
			Tick:            uint64(i),
			Time:            float64(i) * 0.016,
			CartPosition:    400 + float64(i),
			Angle:           math.Pi + 0.01*math.Sin(float64(i)/5),
			AngularVelocity: 0.002 * math.Cos(float64(i)/5),
			DriveDirection:  dir,
		}
	}
	return snaps
}

func TestTrajectorySavesPNG(t *testing.T) {
	field, ok := analysis.FieldByName("cart_position")
	require.True(t, ok)

	p, err := Trajectory(testSnapshots(), field)
	require.NoError(t, err)
	assert.Equal(t, "cart_position", p.Title.Text)

	path := filepath.Join(t.TempDir(), "out", "cart.png")
	require.NoError(t, Save(p, 4, 3, 72, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestPhaseSavesSVG(t *testing.T) {
	p, err := Phase(analysis.PhasePortrait(testSnapshots()))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "phase.svg")
	require.NoError(t, Save(p, 4, 4, 72, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRejectsEmptyInput(t *testing.T) {
	field, _ := analysis.FieldByName("angle_error")
	_, err := Trajectory(nil, field)
	assert.Error(t, err)

	_, err = Phase(&analysis.PhasePortrait2D{})
	assert.Error(t, err)
}
