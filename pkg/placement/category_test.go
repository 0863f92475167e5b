package placement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/geom"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"CHARGING", Charging},
		{"pickup", Pickup},
		{" Dropoff ", Dropoff},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCategory("parking")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidCategory))
}

func TestParseOrder(t *testing.T) {
	order, err := ParseOrder([]string{"pickup", "charging"})
	require.NoError(t, err)
	assert.Equal(t, []Category{Pickup, Charging}, order)

	_, err = ParseOrder([]string{"pickup", "PICKUP"})
	assert.Error(t, err)
}

func TestCategoryStrings(t *testing.T) {
	assert.Equal(t, "CHARGING", Charging.String())
	assert.Equal(t, "PU", Pickup.Prefix())
	assert.Equal(t, "DO", Dropoff.Prefix())
	assert.Equal(t, "UNKNOWN", Category(9).String())
}

func TestCategoryJSON(t *testing.T) {
	data, err := json.Marshal(map[Category]int{Pickup: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"PICKUP":2}`, string(data))

	var c Category
	require.NoError(t, json.Unmarshal([]byte(`"dropoff"`), &c))
	assert.Equal(t, Dropoff, c)

	_, err = json.Marshal(Category(7))
	assert.Error(t, err)
}

type recordingRand struct{ calls []int }

func (r *recordingRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	return 0
}

func TestShuffleFisherYates(t *testing.T) {
	cells := []geom.Cell{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	r := &recordingRand{}
	Shuffle(r, cells)

	assert.Equal(t, []int{4, 3, 2}, r.calls)
	assert.Equal(t, []geom.Cell{{X: 1}, {X: 2}, {X: 3}, {X: 0}}, cells)

	Shuffle(r, nil)
	Shuffle(r, cells[:1])
	assert.Len(t, r.calls, 3, "short slices draw nothing")
}

func TestAssignIDs(t *testing.T) {
	results := []CategoryResult{
		{Category: Charging, Clusters: []Cluster{
			{Center: geom.Cell{X: 1, Y: 1}, Nodes: []geom.Cell{{X: 1, Y: 1}, {X: 3, Y: 1}}},
		}},
		{Category: Pickup, Clusters: []Cluster{
			{Center: geom.Cell{X: 9, Y: 9}, Nodes: []geom.Cell{{X: 9, Y: 9}}},
			{Center: geom.Cell{X: 20, Y: 9}, Nodes: []geom.Cell{{X: 20, Y: 9}}},
		}},
		{Category: Dropoff, Clusters: []Cluster{
			{Center: geom.Cell{X: 9, Y: 20}, Nodes: []geom.Cell{{X: 9, Y: 21}}},
		}},
	}

	pois := AssignIDs(results)
	ids := make([]string, len(pois))
	for i, p := range pois {
		ids[i] = p.ID
		assert.True(t, p.Active)
	}
	assert.Equal(t, []string{"C0", "C1", "PU0", "PU1", "DO0"}, ids)
	assert.Equal(t, geom.Cell{X: 20, Y: 9}, pois[3].ClusterCenter)
	assert.Equal(t, geom.Cell{X: 9, Y: 21}, pois[4].Position)
}
